// handlers_view.go - Viewport and selection overlay handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/overlay"
	"github.com/seat-planner/backend/internal/viewport"
)

// ViewHandlerImpl implements the ViewHandler interface
type ViewHandlerImpl struct {
	sessions SessionManager
}

// NewViewHandler creates a new view handler instance
func NewViewHandler(sessions SessionManager) ViewHandler {
	return &ViewHandlerImpl{sessions: sessions}
}

// HandleGetViewport returns the viewport state
func (h *ViewHandlerImpl) HandleGetViewport(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	return c.JSON(http.StatusOK, s.Editor.Viewport().State())
}

// HandleUpdateViewport applies the given viewport fields. A zoomAt anchor
// keeps the world point under it fixed while zooming.
func (h *ViewHandlerImpl) HandleUpdateViewport(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var req updateViewportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	vp := s.Editor.Viewport()
	if req.Reset {
		vp.Reset()
	}
	if req.PanX != nil || req.PanY != nil {
		cur := vp.State()
		x, y := cur.PanX, cur.PanY
		if req.PanX != nil {
			x = *req.PanX
		}
		if req.PanY != nil {
			y = *req.PanY
		}
		vp.SetPan(x, y)
	}
	if req.Zoom != nil {
		if req.ZoomAt != nil {
			vp.ZoomAt(*req.ZoomAt, *req.Zoom)
		} else {
			vp.SetZoom(*req.Zoom)
		}
	}
	if req.GridSize != nil {
		vp.SetGridSize(*req.GridSize)
	}
	if req.GridVisible != nil {
		vp.SetGridVisible(*req.GridVisible)
	}
	if req.SnapEnabled != nil {
		vp.SetSnapEnabled(*req.SnapEnabled)
	}
	return c.JSON(http.StatusOK, vp.State())
}

// HandleFitViewport fits every element into the client's container
func (h *ViewHandlerImpl) HandleFitViewport(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	var size viewport.Size
	if err := c.Bind(&size); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if size.Width <= 0 {
		return NewValidationError("width")
	}
	if size.Height <= 0 {
		return NewValidationError("height")
	}

	state, fitted := s.Editor.FitAll(size)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"fitted":   fitted,
		"viewport": state,
	})
}

// HandleGetOverlay returns the selection boxes in screen space
func (h *ViewHandlerImpl) HandleGetOverlay(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()
	return c.JSON(http.StatusOK, s.Editor.Overlay().Boxes())
}

// HandleGetOverlaySVG renders the selection overlay as SVG. Without a
// width and height the configured canvas size is used.
func (h *ViewHandlerImpl) HandleGetOverlaySVG(c echo.Context) error {
	s, err := lookupSession(h.sessions, c)
	if err != nil {
		return err
	}
	defer s.Unlock()

	width, err := floatQuery(c, "width")
	if err != nil {
		return err
	}
	height, err := floatQuery(c, "height")
	if err != nil {
		return err
	}

	var svg string
	if width > 0 && height > 0 {
		svg = overlay.RenderSVG(s.Editor.Overlay().Boxes(), width, height)
	} else {
		s.Editor.Overlay().Render()
		svg = s.Editor.OverlaySVG().Last()
	}
	return c.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
}

func floatQuery(c echo.Context, name string) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, NewValidationError(name)
	}
	return v, nil
}

// Request types

type updateViewportRequest struct {
	PanX        *float64        `json:"panX"`
	PanY        *float64        `json:"panY"`
	Zoom        *float64        `json:"zoom"`
	ZoomAt      *geometry.Point `json:"zoomAt"`
	GridSize    *float64        `json:"gridSize"`
	GridVisible *bool           `json:"gridVisible"`
	SnapEnabled *bool           `json:"snapEnabled"`
	Reset       bool            `json:"reset"`
}

func (r *updateViewportRequest) validate() error {
	if r.Zoom != nil && *r.Zoom <= 0 {
		return NewValidationError("zoom")
	}
	if r.GridSize != nil && *r.GridSize <= 0 {
		return NewValidationError("gridSize")
	}
	if r.ZoomAt != nil && r.Zoom == nil {
		return NewValidationError("zoom")
	}
	return nil
}
