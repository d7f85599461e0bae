// handlers_layouts.go - Import/export, layout persistence and venue rules handlers
package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/export"
	"github.com/seat-planner/backend/internal/parser"
	"github.com/seat-planner/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	// maxImportSize bounds imported layout documents.
	maxImportSize = 32 << 20
	// formatXLSX selects the seat manifest export.
	formatXLSX = "xlsx"
	// defaultLayoutListLimit applies when GET /layouts has no limit.
	defaultLayoutListLimit = 20
)

// LayoutHandlerImpl implements the LayoutHandler interface
type LayoutHandlerImpl struct {
	sessions SessionManager
	layouts  storage.LayoutStore
	logger   *zap.Logger
}

// NewLayoutHandler creates a new layout handler instance
func NewLayoutHandler(sessions SessionManager, layouts storage.LayoutStore, logger *zap.Logger) LayoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutHandlerImpl{sessions: sessions, layouts: layouts, logger: logger}
}

func (h *LayoutHandlerImpl) requireStore() error {
	if h.layouts == nil {
		return NewServiceUnavailableError("layout storage is not configured")
	}
	return nil
}

// HandleExport downloads the session's layout as JSON, msgpack or an xlsx
// seat manifest
func (h *LayoutHandlerImpl) HandleExport(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	name := s.Name
	format := strings.ToLower(c.QueryParam("format"))
	var (
		buf         bytes.Buffer
		contentType string
		ext         string
	)
	if format == formatXLSX {
		m := export.Manifest{
			Name:     name,
			Elements: s.Editor.Elements().All(),
			Chairs:   s.Editor.ChairsView(),
		}
		rules := s.Editor.Rules()
		m.Rules = &rules
		if err := export.WriteSeatManifest(&buf, m); err != nil {
			return NewInternalError("failed to build seat manifest", err)
		}
		contentType, ext = export.ContentType, ".xlsx"
	} else {
		f, err := parser.ParseFormat(format)
		if err != nil {
			return NewBadRequestError("unsupported export format", err)
		}
		codec, err := parser.GetGlobalRegistry().Codec(f)
		if err != nil {
			return NewBadRequestError("unsupported export format", err)
		}
		if err := codec.Encode(&buf, s.Editor.Document(name)); err != nil {
			return NewInternalError("failed to encode layout", err)
		}
		contentType, ext = codec.ContentType(), codec.Extension()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", exportFileName(name)+ext))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func exportFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		default:
			return -1
		}
	}, name)
	if name == "" {
		return "layout"
	}
	return name
}

// HandleImport replaces the session's layout with the request body. Without
// a format query the codec is detected from the content.
func (h *LayoutHandlerImpl) HandleImport(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var format parser.Format
	if raw := c.QueryParam("format"); raw != "" {
		if format, err = parser.ParseFormat(raw); err != nil {
			return NewBadRequestError("unsupported import format", err)
		}
	}

	body := io.LimitReader(c.Request().Body, maxImportSize)
	doc, err := s.Editor.Import(body, format)
	if err != nil {
		return NewBadRequestError("failed to import layout", err)
	}

	h.logger.Info("layout imported",
		zap.String("session_id", s.ID),
		zap.String("format", string(format)),
		zap.Int("elements", len(doc.Elements)))

	info, err := h.sessions.Info(s.ID)
	if err != nil {
		return FromError(err, "failed to describe session")
	}
	return c.JSON(http.StatusOK, info)
}

// HandleSaveLayout persists the session's layout. A session opened from a
// stored layout overwrites it unless asNew is set.
func (h *LayoutHandlerImpl) HandleSaveLayout(c echo.Context) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var req saveLayoutRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	name := req.Name
	if name == "" {
		name = s.Name
	}
	id := s.LayoutID
	if req.AsNew {
		id = ""
	}

	info, err := h.layouts.Save(c.Request().Context(), id, s.Editor.Document(name))
	if err != nil {
		return NewInternalError("failed to save layout", err)
	}
	h.sessions.SetLayoutID(s.ID, info.ID)

	h.logger.Info("layout saved",
		zap.String("session_id", s.ID),
		zap.String("layout_id", info.ID),
		zap.Int64("size", info.Size))
	return c.JSON(http.StatusCreated, info)
}

// HandleListLayouts returns the most recently saved layouts
func (h *LayoutHandlerImpl) HandleListLayouts(c echo.Context) error {
	if err := h.requireStore(); err != nil {
		return err
	}

	limit := defaultLayoutListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	list, err := h.layouts.List(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to list layouts", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetLayoutInfo returns the metadata of one stored layout
func (h *LayoutHandlerImpl) HandleGetLayoutInfo(c echo.Context) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	id := c.Param("layoutId")
	if id == "" {
		return NewValidationError("layoutId")
	}

	info, err := h.layouts.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrLayoutNotFound) {
			return NewNotFoundError("layout", id)
		}
		return NewInternalError("failed to get layout", err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteLayout removes a stored layout
func (h *LayoutHandlerImpl) HandleDeleteLayout(c echo.Context) error {
	if err := h.requireStore(); err != nil {
		return err
	}
	id := c.Param("layoutId")
	if id == "" {
		return NewValidationError("layoutId")
	}

	if err := h.layouts.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrLayoutNotFound) {
			return NewNotFoundError("layout", id)
		}
		return NewInternalError("failed to delete layout", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetRules returns the venue rules as JSON, or YAML with ?format=yaml
func (h *LayoutHandlerImpl) HandleGetRules(c echo.Context) error {
	rules := h.sessions.Rules()
	if strings.EqualFold(c.QueryParam("format"), "yaml") {
		var buf bytes.Buffer
		if err := parser.WriteVenueRules(&buf, rules); err != nil {
			return NewInternalError("failed to encode rules", err)
		}
		return c.Blob(http.StatusOK, "application/yaml", buf.Bytes())
	}
	return c.JSON(http.StatusOK, rules)
}

// HandleUploadRules parses base64 YAML venue rules and applies them to
// every session
func (h *LayoutHandlerImpl) HandleUploadRules(c echo.Context) error {
	var req uploadRulesRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}
	rules, err := parser.ParseVenueRulesFromReader(bytes.NewReader(decoded))
	if err != nil {
		return NewBadRequestError("failed to parse rules", err)
	}

	h.sessions.SetRules(rules)
	h.logger.Info("venue rules updated",
		zap.String("name", req.Name),
		zap.Float64("default_price", rules.DefaultPrice),
		zap.Int("max_selectable_seats", rules.MaxSelectableSeats))
	return c.JSON(http.StatusOK, rules)
}

// Request types

type saveLayoutRequest struct {
	Name  string `json:"name"`
	AsNew bool   `json:"asNew"`
}

type uploadRulesRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded YAML
}

func (r *uploadRulesRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}
