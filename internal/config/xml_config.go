// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/seat-planner/backend/internal/editor"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "SeatPlanner.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"SeatPlanner"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Editor engine defaults applied to every session
	Editor EditorConfig `xml:"Editor"`

	// Session lifecycle
	Sessions SessionsConfig `xml:"Sessions"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory   string `xml:"DataDirectory"`
	DatabaseFile    string `xml:"DatabaseFile"`
	RulesFile       string `xml:"RulesFile"`
	LayoutDirectory string `xml:"LayoutDirectory"`
	DuckDBThreads   int    `xml:"DuckDBThreads"`
}

// EditorConfig mirrors editor.Settings in config-file units.
type EditorConfig struct {
	MinZoom            float64 `xml:"MinZoom"`
	MaxZoom            float64 `xml:"MaxZoom"`
	DefaultZoom        float64 `xml:"DefaultZoom"`
	GridSize           float64 `xml:"GridSize"`
	GridVisible        bool    `xml:"GridVisible"`
	SnapEnabled        bool    `xml:"SnapEnabled"`
	FitPadding         float64 `xml:"FitPadding"`
	DragThreshold      float64 `xml:"DragThreshold"`
	DragCooldownMs     int     `xml:"DragCooldownMs"`
	PolygonSnapRadius  float64 `xml:"PolygonSnapRadius"`
	SeatSpacing        float64 `xml:"SeatSpacing"`
	DefaultChairPrice  float64 `xml:"DefaultChairPrice"`
	MaxSelectableSeats int     `xml:"MaxSelectableSeats"`
	OverlayFrameMs     int     `xml:"OverlayFrameMs"`
	OverlayCacheMs     int     `xml:"OverlayCacheMs"`
	OverlayAnimation   bool    `xml:"OverlayAnimation"`
	CanvasWidth        float64 `xml:"CanvasWidth"`
	CanvasHeight       float64 `xml:"CanvasHeight"`
}

// SessionsConfig contains editor session limits
type SessionsConfig struct {
	MaxSessions            int `xml:"MaxSessions"`
	SessionTimeoutMinutes  int `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	LogFormat               string `xml:"LogFormat"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	d := editor.DefaultSettings()
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "32M",
		},
		Storage: StorageConfig{
			DataDirectory:   "./data",
			DatabaseFile:    "./data/layouts.duckdb",
			RulesFile:       "./data/venue_rules.yaml",
			LayoutDirectory: "./data/layouts",
			DuckDBThreads:   4,
		},
		Editor: EditorConfig{
			MinZoom:            d.MinZoom,
			MaxZoom:            d.MaxZoom,
			DefaultZoom:        d.DefaultZoom,
			GridSize:           d.GridSize,
			GridVisible:        d.GridVisible,
			SnapEnabled:        d.SnapEnabled,
			FitPadding:         d.FitPadding,
			DragThreshold:      d.DragThreshold,
			DragCooldownMs:     int(d.DragCooldown / time.Millisecond),
			PolygonSnapRadius:  d.PolygonSnapRadius,
			SeatSpacing:        d.SeatSpacing,
			DefaultChairPrice:  d.DefaultChairPrice,
			MaxSelectableSeats: d.MaxSelectableSeats,
			OverlayFrameMs:     int(d.OverlayFrameInterval / time.Millisecond),
			OverlayCacheMs:     int(d.OverlayFreshness / time.Millisecond),
			OverlayAnimation:   d.OverlayAnimate,
			CanvasWidth:        d.CanvasWidth,
			CanvasHeight:       d.CanvasHeight,
		},
		Sessions: SessionsConfig{
			MaxSessions:            10,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			LogFormat:               "json",
			EnableRequestLogging:    true,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal over the defaults so sections missing from older files keep sane values
	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Seat Planner Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if db := os.Getenv("SEATPLANNER_DB"); db != "" {
		c.Storage.DatabaseFile = db
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.DatabaseFile,
		&c.Storage.RulesFile,
		&c.Storage.LayoutDirectory,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTimeout returns how long an idle session is kept.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Sessions.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Sessions.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Sessions.CleanupIntervalMinutes) * time.Minute
}

// EditorSettings converts the Editor section into engine settings. Zero
// values fall back to the engine defaults.
func (c *AppConfig) EditorSettings() editor.Settings {
	s := editor.DefaultSettings()
	e := c.Editor
	setFloat := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	setMs := func(dst *time.Duration, ms int) {
		if ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
	setFloat(&s.MinZoom, e.MinZoom)
	setFloat(&s.MaxZoom, e.MaxZoom)
	setFloat(&s.DefaultZoom, e.DefaultZoom)
	setFloat(&s.GridSize, e.GridSize)
	setFloat(&s.DragThreshold, e.DragThreshold)
	setFloat(&s.PolygonSnapRadius, e.PolygonSnapRadius)
	setFloat(&s.SeatSpacing, e.SeatSpacing)
	setFloat(&s.DefaultChairPrice, e.DefaultChairPrice)
	setFloat(&s.CanvasWidth, e.CanvasWidth)
	setFloat(&s.CanvasHeight, e.CanvasHeight)
	setMs(&s.DragCooldown, e.DragCooldownMs)
	setMs(&s.OverlayFrameInterval, e.OverlayFrameMs)
	setMs(&s.OverlayFreshness, e.OverlayCacheMs)
	if e.FitPadding != 0 {
		s.FitPadding = e.FitPadding
	}
	if e.MaxSelectableSeats >= 0 {
		s.MaxSelectableSeats = e.MaxSelectableSeats
	}
	s.GridVisible = e.GridVisible
	s.SnapEnabled = e.SnapEnabled
	s.OverlayAnimate = e.OverlayAnimation
	return s
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.LayoutDirectory,
		filepath.Dir(c.Storage.DatabaseFile),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
