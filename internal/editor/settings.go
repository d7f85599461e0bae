package editor

import (
	"time"

	"github.com/seat-planner/backend/internal/drag"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/overlay"
	"github.com/seat-planner/backend/internal/segment"
	"github.com/seat-planner/backend/internal/tools"
	"github.com/seat-planner/backend/internal/viewport"
)

// Settings configures one editor instance.
type Settings struct {
	MinZoom     float64
	MaxZoom     float64
	DefaultZoom float64
	GridSize    float64
	GridVisible bool
	SnapEnabled bool
	FitPadding  float64

	DragThreshold float64
	DragCooldown  time.Duration

	PolygonSnapRadius  float64
	SeatSpacing        float64
	DefaultChairPrice  float64
	MaxSelectableSeats int

	OverlayFrameInterval time.Duration
	OverlayFreshness     time.Duration
	OverlayAnimate       bool
	CanvasWidth          float64
	CanvasHeight         float64
}

// DefaultSettings returns the stock editor configuration.
func DefaultSettings() Settings {
	return Settings{
		MinZoom:              viewport.MinZoom,
		MaxZoom:              viewport.MaxZoom,
		DefaultZoom:          viewport.DefaultZoom,
		GridSize:             viewport.DefaultGridSize,
		GridVisible:          true,
		SnapEnabled:          false,
		FitPadding:           viewport.DefaultPadding,
		DragThreshold:        drag.DefaultThreshold,
		DragCooldown:         drag.DefaultCooldown,
		PolygonSnapRadius:    tools.DefaultSnapRadius,
		SeatSpacing:          segment.DefaultSpacing,
		DefaultChairPrice:    models.DefaultChairPrice,
		OverlayFrameInterval: overlay.DefaultFrameInterval,
		OverlayFreshness:     overlay.DefaultFreshness,
		OverlayAnimate:       true,
		CanvasWidth:          1280,
		CanvasHeight:         800,
	}
}

func (s Settings) viewportOptions() viewport.Options {
	return viewport.Options{
		MinZoom:     s.MinZoom,
		MaxZoom:     s.MaxZoom,
		DefaultZoom: s.DefaultZoom,
		GridSize:    s.GridSize,
		GridVisible: s.GridVisible,
		SnapEnabled: s.SnapEnabled,
		FitPadding:  s.FitPadding,
	}
}
