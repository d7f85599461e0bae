// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/seat-planner/backend/internal/storage"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions       SessionManager
	Layouts        storage.LayoutStore
	Logger         *zap.Logger
	Clock          clockwork.Clock
	Version        string
	MaxMessageSize int64
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Session  SessionHandler
	Element  ElementHandler
	View     ViewHandler
	Chair    ChairHandler
	Layout   LayoutHandler
	Realtime ChangeFeedHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Sessions),
		Session:  NewSessionHandler(deps.Sessions, deps.Layouts, deps.Logger),
		Element:  NewElementHandler(deps.Sessions, deps.Logger),
		View:     NewViewHandler(deps.Sessions),
		Chair:    NewChairHandler(deps.Sessions, deps.Logger),
		Layout:   NewLayoutHandler(deps.Sessions, deps.Layouts, deps.Logger),
		Realtime: NewWebSocketHandler(deps.Sessions, deps.MaxMessageSize, deps.Clock, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")

	// Health check
	api.GET("/health", handlers.Health.HandleHealth)

	// Session routes
	sessions := api.Group("/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession)
	sessions.GET("", handlers.Session.HandleListSessions)
	sessions.GET("/:id", handlers.Session.HandleGetSession)
	sessions.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessions.POST("/:id/keepalive", handlers.Session.HandleSessionKeepAlive)
	sessions.GET("/:id/layout", handlers.Session.HandleGetLayout)
	sessions.GET("/:id/history", handlers.Session.HandleGetHistory)
	sessions.POST("/:id/undo", handlers.Session.HandleUndo)
	sessions.POST("/:id/redo", handlers.Session.HandleRedo)
	sessions.GET("/:id/selection", handlers.Session.HandleGetSelection)
	sessions.DELETE("/:id/selection", handlers.Session.HandleClearSelection)

	// Element editing
	sessions.POST("/:id/elements", handlers.Element.HandleAddElement)
	sessions.PATCH("/:id/elements/:elementId", handlers.Element.HandleUpdateElement)
	sessions.DELETE("/:id/elements/:elementId", handlers.Element.HandleDeleteElement)
	sessions.POST("/:id/elements/:elementId/rotate", handlers.Element.HandleRotateElement)
	sessions.POST("/:id/elements/:elementId/reorder", handlers.Element.HandleReorderElement)
	sessions.POST("/:id/elements/:elementId/select", handlers.Element.HandleSelectElement)
	sessions.POST("/:id/events", handlers.Element.HandleEvents)
	sessions.POST("/:id/tool", handlers.Element.HandleSetTool)

	// Viewport and overlay
	sessions.GET("/:id/viewport", handlers.View.HandleGetViewport)
	sessions.PUT("/:id/viewport", handlers.View.HandleUpdateViewport)
	sessions.POST("/:id/viewport/fit", handlers.View.HandleFitViewport)
	sessions.GET("/:id/overlay", handlers.View.HandleGetOverlay)
	sessions.GET("/:id/overlay.svg", handlers.View.HandleGetOverlaySVG)

	// Chairs and reservations
	sessions.GET("/:id/chairs", handlers.Chair.HandleGetChairs)
	sessions.PATCH("/:id/chairs/:chairId", handlers.Chair.HandleUpdateChair)
	sessions.POST("/:id/chairs/:chairId/select", handlers.Chair.HandleSelectChair)
	sessions.POST("/:id/chairs/:chairId/toggle-reservation", handlers.Chair.HandleToggleReservation)
	sessions.PUT("/:id/pre-reserved", handlers.Chair.HandleSetPreReserved)
	sessions.POST("/:id/reservations", handlers.Chair.HandleReserveSelected)

	// Import/export and persistence
	sessions.GET("/:id/export", handlers.Layout.HandleExport)
	sessions.POST("/:id/import", handlers.Layout.HandleImport)
	sessions.POST("/:id/save", handlers.Layout.HandleSaveLayout)

	layouts := api.Group("/layouts")
	layouts.GET("", handlers.Layout.HandleListLayouts)
	layouts.GET("/:layoutId", handlers.Layout.HandleGetLayoutInfo)
	layouts.DELETE("/:layoutId", handlers.Layout.HandleDeleteLayout)

	// Venue rules
	api.GET("/rules", handlers.Layout.HandleGetRules)
	api.POST("/rules", handlers.Layout.HandleUploadRules)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/sessions/:id/ws", handlers.Realtime.HandleChangeFeed)
}

// SetupMiddleware configures common middleware. Request logging goes
// through logger when requestLogging is set.
func SetupMiddleware(e *echo.Echo, logger *zap.Logger, requestLogging bool) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	if requestLogging && logger != nil {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogURI:     true,
			LogStatus:  true,
			LogMethod:  true,
			LogError:   true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				if v.URI == "/api/health" {
					return nil
				}
				fields := []zap.Field{
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status),
					zap.Duration("latency", v.Latency),
				}
				if v.Error != nil {
					fields = append(fields, zap.Error(v.Error))
					logger.Warn("request failed", fields...)
					return nil
				}
				logger.Debug("request", fields...)
				return nil
			},
		}))
	}
}
