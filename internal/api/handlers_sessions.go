// handlers_sessions.go - Editor session lifecycle handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/editor"
	"github.com/seat-planner/backend/internal/history"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/session"
	"github.com/seat-planner/backend/internal/storage"
	"go.uber.org/zap"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionManager
	layouts  storage.LayoutStore
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions SessionManager, layouts storage.LayoutStore, logger *zap.Logger) SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandlerImpl{sessions: sessions, layouts: layouts, logger: logger}
}

type sessionResponse struct {
	models.SessionInfo
	Selection editor.SelectionSnapshot `json:"selection"`
	Tool      string                   `json:"tool"`
}

func describeSession(sessions SessionManager, s *session.Session) (*sessionResponse, error) {
	info, err := sessions.Info(s.ID)
	if err != nil {
		return nil, err
	}
	return &sessionResponse{
		SessionInfo: info,
		Selection:   s.Editor.CurrentSelection(),
		Tool:        string(s.Editor.Tools().Active()),
	}, nil
}

// HandleCreateSession opens a session, optionally from a stored layout or an
// inline document
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	doc := req.Document
	if req.LayoutID != "" {
		if h.layouts == nil {
			return NewServiceUnavailableError("layout storage is not configured")
		}
		loaded, err := h.layouts.Load(c.Request().Context(), req.LayoutID)
		if err != nil {
			if errors.Is(err, storage.ErrLayoutNotFound) {
				return NewNotFoundError("layout", req.LayoutID)
			}
			return NewInternalError("failed to load layout", err)
		}
		doc = loaded
	}

	s, err := h.sessions.Create(req.Name, doc, req.LayoutID)
	if err != nil {
		if errors.Is(err, session.ErrTooManySessions) {
			return FromError(err, "")
		}
		return NewBadRequestError("failed to open layout", err)
	}
	s.Lock()
	defer s.Unlock()

	h.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("layout_id", req.LayoutID),
		zap.Int("elements", s.Editor.Elements().Len()))

	resp, err := describeSession(h.sessions, s)
	if err != nil {
		return FromError(err, "failed to describe session")
	}
	return c.JSON(http.StatusCreated, resp)
}

// HandleListSessions returns every open session
func (h *SessionHandlerImpl) HandleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetSession returns one session with its selection
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	resp, err := describeSession(h.sessions, s)
	if err != nil {
		return FromError(err, "failed to describe session")
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleDeleteSession closes a session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if err := h.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return NewNotFoundError("session", id)
		}
		return NewInternalError("failed to close session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionKeepAlive extends session lifetime for active editing
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if ok := h.sessions.TouchSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleGetLayout returns the session's current layout document
func (h *SessionHandlerImpl) HandleGetLayout(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	return c.JSON(http.StatusOK, s.Editor.Document(s.Name))
}

// HandleGetHistory returns the undo and redo stacks
func (h *SessionHandlerImpl) HandleGetHistory(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	return c.JSON(http.StatusOK, s.Editor.History().Snapshot())
}

// HandleUndo reverts the most recent command
func (h *SessionHandlerImpl) HandleUndo(c echo.Context) error {
	return h.step(c, (*editor.Editor).Undo)
}

// HandleRedo reapplies the most recently undone command
func (h *SessionHandlerImpl) HandleRedo(c echo.Context) error {
	return h.step(c, (*editor.Editor).Redo)
}

type historyResponse struct {
	Applied bool             `json:"applied"`
	History history.Snapshot `json:"history"`
}

func (h *SessionHandlerImpl) step(c echo.Context, fn func(*editor.Editor) bool) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	applied := fn(s.Editor)
	return c.JSON(http.StatusOK, historyResponse{Applied: applied, History: s.Editor.History().Snapshot()})
}

// HandleGetSelection returns both selection slots
func (h *SessionHandlerImpl) HandleGetSelection(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	return c.JSON(http.StatusOK, s.Editor.CurrentSelection())
}

// HandleClearSelection empties the selection
func (h *SessionHandlerImpl) HandleClearSelection(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	s.Editor.ClearSelection()
	return c.NoContent(http.StatusNoContent)
}

// Request types

type createSessionRequest struct {
	Name     string                 `json:"name"`
	LayoutID string                 `json:"layoutId"`
	Document *models.LayoutDocument `json:"document"`
}

func (r *createSessionRequest) validate() error {
	if r.LayoutID != "" && r.Document != nil {
		return NewBadRequestError("layoutId and document are mutually exclusive", nil)
	}
	return nil
}
