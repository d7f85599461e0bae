package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/seat-planner/backend/internal/api"
	"github.com/seat-planner/backend/internal/config"
	"github.com/seat-planner/backend/internal/logger"
	"github.com/seat-planner/backend/internal/session"
	"github.com/seat-planner/backend/internal/storage"
	"go.uber.org/zap"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, config.FileName)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat, "seat-planner")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal("failed to create directories", zap.Error(err))
	}

	// Initialize layout storage
	layouts, backend, err := openLayoutStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer layouts.Close()

	// Initialize session manager
	clock := clockwork.NewRealClock()
	sessionMgr := session.NewManager(session.Options{
		MaxSessions: cfg.Sessions.MaxSessions,
		Settings:    cfg.EditorSettings(),
		Clock:       clock,
		Logger:      log.Named("session"),
	})
	defer sessionMgr.Close()

	// Load default rules on startup
	if err := api.LoadDefaultRules(sessionMgr, cfg.Storage.RulesFile, log); err != nil {
		log.Warn("failed to load default rules", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go sessionMgr.RunCleanup(ctx, cfg.CleanupInterval(), cfg.SessionTimeout())

	api.SetDevelopment(cfg.Advanced.LogLevel == "debug")

	e := echo.New()
	e.HideBanner = true

	// Configure middleware
	api.SetupMiddleware(e, log.Named("http"), cfg.Advanced.EnableRequestLogging)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/ws")
		},
		ErrorMessage: "Request timeout",
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	// API Routes
	handlers := api.NewHandlers(&api.Dependencies{
		Sessions:       sessionMgr,
		Layouts:        layouts,
		Logger:         log.Named("api"),
		Clock:          clock,
		Version:        Version,
		MaxMessageSize: int64(cfg.Advanced.WebSocketMaxMessageSize) * 1024,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Seat Planner Layout Server                      ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Storage:    %-45s║\n", backend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// openLayoutStore opens the DuckDB layout store, or the file store when no
// database file is configured.
func openLayoutStore(cfg *config.AppConfig, log *zap.Logger) (storage.LayoutStore, string, error) {
	if cfg.Storage.DatabaseFile != "" {
		ds, err := storage.NewDuckStore(cfg.Storage.DatabaseFile, cfg.Storage.DuckDBThreads, log.Named("duckdb"))
		if err != nil {
			return nil, "", err
		}
		return ds, "duckdb " + filepath.Base(cfg.Storage.DatabaseFile), nil
	}
	ls, err := storage.NewLocalStore(cfg.Storage.LayoutDirectory, log.Named("layouts"))
	if err != nil {
		return nil, "", err
	}
	return ls, "files " + filepath.Base(cfg.Storage.LayoutDirectory), nil
}
