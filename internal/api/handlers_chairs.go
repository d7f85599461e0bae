// handlers_chairs.go - Chair and reservation handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"go.uber.org/zap"
)

// ChairHandlerImpl implements the ChairHandler interface
type ChairHandlerImpl struct {
	sessions SessionManager
	logger   *zap.Logger
}

// NewChairHandler creates a new chair handler instance
func NewChairHandler(sessions SessionManager, logger *zap.Logger) ChairHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChairHandlerImpl{sessions: sessions, logger: logger}
}

func chairID(c echo.Context) (string, error) {
	id := c.Param("chairId")
	if id == "" {
		return "", NewValidationError("chairId")
	}
	return id, nil
}

// HandleGetChairs lists chairs with their derived reservation status,
// optionally only those of one element
func (h *ChairHandlerImpl) HandleGetChairs(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	all := s.Editor.ChairsView()
	tableID := c.QueryParam("elementId")
	out := make([]models.Chair, 0, len(all))
	for _, ch := range all {
		if tableID == "" || ch.TableID == tableID {
			out = append(out, ch)
		}
	}
	return c.JSON(http.StatusOK, out)
}

// HandleUpdateChair patches a chair's label, price or reservation
func (h *ChairHandlerImpl) HandleUpdateChair(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := chairID(c)
	if err != nil {
		return err
	}

	var patch models.ChairPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if patch.Price != nil && *patch.Price < 0 {
		return NewValidationError("price")
	}

	ch, ok := s.Editor.UpdateChair(id, patch)
	if !ok {
		return NewNotFoundError("chair", id)
	}
	return c.JSON(http.StatusOK, ch)
}

// HandleSelectChair selects a chair and anchors its property panel
func (h *ChairHandlerImpl) HandleSelectChair(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := chairID(c)
	if err != nil {
		return err
	}

	var req selectChairRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if !s.Editor.SelectChair(id, req.Panel) {
		return NewNotFoundError("chair", id)
	}
	return c.JSON(http.StatusOK, s.Editor.CurrentSelection())
}

// HandleToggleReservation selects a seat for reservation or releases it.
// Rejected toggles answer 409 with the user-facing notice.
func (h *ChairHandlerImpl) HandleToggleReservation(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := chairID(c)
	if err != nil {
		return err
	}

	status, ok := s.Editor.ToggleReservation(id)
	if status == "" {
		return NewNotFoundError("chair", id)
	}
	if !ok {
		msg := "seat can not be selected"
		if notices := s.Editor.Notices(); len(notices) > 0 {
			msg = notices[len(notices)-1].Message
		}
		return NewConflictError(msg)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"chairId": id,
		"status":  status,
	})
}

// HandleSetPreReserved replaces the externally reserved seat ids
func (h *ChairHandlerImpl) HandleSetPreReserved(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var req preReservedRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.ChairIDs == nil {
		return NewValidationError("chairIds")
	}

	s.Editor.SetPreReserved(req.ChairIDs)
	return c.JSON(http.StatusOK, s.Editor.Desk().PreReserved())
}

// HandleReserveSelected books every seat selected for reservation
func (h *ChairHandlerImpl) HandleReserveSelected(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.ReservedBy == "" {
		return NewValidationError("reservedBy")
	}

	reserved := s.Editor.ReserveSelected(req.ReservedBy)
	if reserved == nil {
		reserved = []models.Chair{}
	}
	h.logger.Info("reservation requested",
		zap.String("session_id", s.ID),
		zap.Int("seats", len(reserved)))
	return c.JSON(http.StatusOK, reserved)
}

// Request types

type selectChairRequest struct {
	Panel *geometry.Point `json:"panel"`
}

type preReservedRequest struct {
	ChairIDs []string `json:"chairIds"`
}

type reserveRequest struct {
	ReservedBy string `json:"reservedBy"`
}
