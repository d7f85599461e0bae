// handlers_elements.go - Element editing, input routing and tool handlers
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/editor"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/store"
	"github.com/seat-planner/backend/internal/tools"
	"go.uber.org/zap"
)

// maxEventBatch bounds one POST /events request.
const maxEventBatch = 500

// ElementHandlerImpl implements the ElementHandler interface
type ElementHandlerImpl struct {
	sessions SessionManager
	logger   *zap.Logger
}

// NewElementHandler creates a new element handler instance
func NewElementHandler(sessions SessionManager, logger *zap.Logger) ElementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElementHandlerImpl{sessions: sessions, logger: logger}
}

type elementResponse struct {
	Element *models.ElementRecord `json:"element"`
	Chairs  []models.Chair        `json:"chairs"`
}

func elementView(ed *editor.Editor, el *models.Element) elementResponse {
	resp := elementResponse{Element: recordOf(el), Chairs: []models.Chair{}}
	if el == nil {
		return resp
	}
	for _, ch := range ed.ChairsView() {
		if ch.TableID == el.ID {
			resp.Chairs = append(resp.Chairs, ch)
		}
	}
	return resp
}

// HandleAddElement adds an element through an undoable command
func (h *ElementHandlerImpl) HandleAddElement(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var rec models.ElementRecord
	if err := c.Bind(&rec); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if rec.Type == "" {
		return NewValidationError("type")
	}

	el, err := s.Editor.AddRecord(rec)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return NewConflictError("element already exists: " + rec.ID)
		}
		return NewBadRequestError("invalid element", err)
	}
	return c.JSON(http.StatusCreated, elementView(s.Editor, el))
}

// HandleUpdateElement merges partial record fields into an element
func (h *ElementHandlerImpl) HandleUpdateElement(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := elementID(c)
	if err != nil {
		return err
	}

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(patch) == 0 {
		return NewBadRequestError("empty patch", nil)
	}

	el, err := s.Editor.UpdateElement(id, patch)
	if err != nil {
		if errors.Is(err, editor.ErrElementNotFound) {
			return NewNotFoundError("element", id)
		}
		return NewBadRequestError("invalid patch", err)
	}
	return c.JSON(http.StatusOK, elementView(s.Editor, el))
}

// HandleDeleteElement removes an element and its chairs
func (h *ElementHandlerImpl) HandleDeleteElement(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := elementID(c)
	if err != nil {
		return err
	}
	if !s.Editor.DeleteElement(id) {
		return NewNotFoundError("element", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRotateElement sets an element's rotation
func (h *ElementHandlerImpl) HandleRotateElement(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := elementID(c)
	if err != nil {
		return err
	}

	var req rotateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	if !s.Editor.RotateElement(id, *req.Rotation) {
		return NewNotFoundError("element", id)
	}
	el, _ := s.Editor.Elements().Get(id)
	return c.JSON(http.StatusOK, elementView(s.Editor, el))
}

// HandleReorderElement moves an element one step in z-order
func (h *ElementHandlerImpl) HandleReorderElement(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := elementID(c)
	if err != nil {
		return err
	}

	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	step, err := req.step()
	if err != nil {
		return err
	}

	if _, ok := s.Editor.Elements().Get(id); !ok {
		return NewNotFoundError("element", id)
	}
	moved := s.Editor.ReorderElement(id, step)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"moved": moved,
		"index": s.Editor.Elements().IndexOf(id),
	})
}

// HandleSelectElement selects an element and frames it in the overlay
func (h *ElementHandlerImpl) HandleSelectElement(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	id, err := elementID(c)
	if err != nil {
		return err
	}
	if !s.Editor.SelectElement(id) {
		return NewNotFoundError("element", id)
	}
	return c.JSON(http.StatusOK, s.Editor.CurrentSelection())
}

// HandleEvents routes a batch of pointer and keyboard events to the editor
func (h *ElementHandlerImpl) HandleEvents(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var req eventsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	handled := s.Editor.Dispatch(req.Events)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"received":  len(req.Events),
		"handled":   handled,
		"selection": s.Editor.CurrentSelection(),
		"tool":      s.Editor.Tools().Active(),
		"drag":      s.Editor.Drag().State().String(),
		"preview":   recordOf(s.Editor.Tools().Preview()),
	})
}

// HandleSetTool activates a creation tool
func (h *ElementHandlerImpl) HandleSetTool(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var req setToolRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	tool, err := tools.ParseTool(req.Tool)
	if err != nil {
		return NewBadRequestError("unknown tool", err)
	}

	s.Editor.SetTool(tool)
	return c.JSON(http.StatusOK, map[string]string{"tool": string(tool)})
}

// Request types

type rotateRequest struct {
	Rotation *float64 `json:"rotation"`
}

func (r *rotateRequest) validate() error {
	if r.Rotation == nil {
		return NewValidationError("rotation")
	}
	return nil
}

type reorderRequest struct {
	Direction string `json:"direction"`
}

func (r *reorderRequest) step() (int, error) {
	switch r.Direction {
	case "forward":
		return 1, nil
	case "backward":
		return -1, nil
	default:
		return 0, NewValidationError("direction")
	}
}

type eventsRequest struct {
	Events []editor.InputEvent `json:"events"`
}

func (r *eventsRequest) validate() error {
	if len(r.Events) == 0 {
		return NewValidationError("events")
	}
	if len(r.Events) > maxEventBatch {
		return NewBadRequestError("too many events in one batch", nil)
	}
	for _, ev := range r.Events {
		if (ev.Pointer == nil) == (ev.Key == nil) {
			return NewBadRequestError("each event needs exactly one of pointer or key", nil)
		}
	}
	return nil
}

type setToolRequest struct {
	Tool string `json:"tool"`
}
