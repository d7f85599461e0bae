// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/session"
)

// SessionHandler handles editor session lifecycle and history operations
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleListSessions(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleGetLayout(c echo.Context) error
	HandleGetHistory(c echo.Context) error
	HandleUndo(c echo.Context) error
	HandleRedo(c echo.Context) error
	HandleGetSelection(c echo.Context) error
	HandleClearSelection(c echo.Context) error
}

// ElementHandler handles element editing and pointer/keyboard routing
type ElementHandler interface {
	HandleAddElement(c echo.Context) error
	HandleUpdateElement(c echo.Context) error
	HandleDeleteElement(c echo.Context) error
	HandleRotateElement(c echo.Context) error
	HandleReorderElement(c echo.Context) error
	HandleSelectElement(c echo.Context) error
	HandleEvents(c echo.Context) error
	HandleSetTool(c echo.Context) error
}

// ViewHandler handles the viewport and the selection overlay
type ViewHandler interface {
	HandleGetViewport(c echo.Context) error
	HandleUpdateViewport(c echo.Context) error
	HandleFitViewport(c echo.Context) error
	HandleGetOverlay(c echo.Context) error
	HandleGetOverlaySVG(c echo.Context) error
}

// ChairHandler handles chair records and viewer-mode reservations
type ChairHandler interface {
	HandleGetChairs(c echo.Context) error
	HandleUpdateChair(c echo.Context) error
	HandleSelectChair(c echo.Context) error
	HandleToggleReservation(c echo.Context) error
	HandleSetPreReserved(c echo.Context) error
	HandleReserveSelected(c echo.Context) error
}

// LayoutHandler handles import/export, persistence and venue rules
type LayoutHandler interface {
	HandleExport(c echo.Context) error
	HandleImport(c echo.Context) error
	HandleSaveLayout(c echo.Context) error
	HandleListLayouts(c echo.Context) error
	HandleGetLayoutInfo(c echo.Context) error
	HandleDeleteLayout(c echo.Context) error
	HandleGetRules(c echo.Context) error
	HandleUploadRules(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ChangeFeedHandler streams editor changes over WebSocket
type ChangeFeedHandler interface {
	HandleChangeFeed(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create(name string, doc *models.LayoutDocument, layoutID string) (*session.Session, error)
	Get(id string) (*session.Session, error)
	TouchSession(id string) bool
	SetLayoutID(id, layoutID string) bool
	Info(id string) (models.SessionInfo, error)
	List() []models.SessionInfo
	Delete(id string) error
	SetRules(r *models.VenueRules)
	Rules() *models.VenueRules
}

var _ SessionManager = (*session.Manager)(nil)
