// Package viewport holds the pan/zoom transform between screen and world
// coordinates.
package viewport

import (
	"math"
	"sync"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
)

// Zoom levels are percentages; 100 means one world unit per pixel.
const (
	MinZoom         = 10.0
	MaxZoom         = 200.0
	DefaultZoom     = 100.0
	DefaultGridSize = 20.0
	DefaultPadding  = 50.0
)

// Options bounds the viewport. Zero values take the defaults; a negative
// FitPadding means no padding.
type Options struct {
	MinZoom     float64
	MaxZoom     float64
	DefaultZoom float64
	GridSize    float64
	GridVisible bool
	SnapEnabled bool
	FitPadding  float64
}

// State is a snapshot of the viewport. Revision increases on every change.
type State struct {
	PanX        float64 `json:"panX"`
	PanY        float64 `json:"panY"`
	Zoom        float64 `json:"zoom"`
	GridSize    float64 `json:"gridSize"`
	GridVisible bool    `json:"gridVisible"`
	SnapEnabled bool    `json:"snapEnabled"`
	Revision    uint64  `json:"revision"`
}

// ZoomFactor converts the zoom percentage to a scale factor.
func (s State) ZoomFactor() float64 { return s.Zoom / 100 }

// Size is a container size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is safe for concurrent use. Redraw callbacks run synchronously
// after each change, outside the lock.
type Viewport struct {
	mu        sync.RWMutex
	opts      Options
	state     State
	callbacks map[int]func(State)
	nextCB    int
}

// New creates a viewport at the default zoom with no pan.
func New(opts Options) *Viewport {
	if opts.MinZoom <= 0 {
		opts.MinZoom = MinZoom
	}
	if opts.MaxZoom <= opts.MinZoom {
		opts.MaxZoom = math.Max(MaxZoom, opts.MinZoom)
	}
	if opts.DefaultZoom <= 0 {
		opts.DefaultZoom = DefaultZoom
	}
	if opts.GridSize <= 0 {
		opts.GridSize = DefaultGridSize
	}
	if opts.FitPadding < 0 {
		opts.FitPadding = 0
	} else if opts.FitPadding == 0 {
		opts.FitPadding = DefaultPadding
	}
	v := &Viewport{opts: opts, callbacks: make(map[int]func(State))}
	v.state = State{
		Zoom:        v.clamp(opts.DefaultZoom),
		GridSize:    opts.GridSize,
		GridVisible: opts.GridVisible,
		SnapEnabled: opts.SnapEnabled,
	}
	return v
}

// ZoomRange returns the valid zoom interval.
func (v *Viewport) ZoomRange() (lo, hi float64) {
	return v.opts.MinZoom, v.opts.MaxZoom
}

func (v *Viewport) clamp(z float64) float64 {
	return math.Min(math.Max(z, v.opts.MinZoom), v.opts.MaxZoom)
}

// OnRedraw registers fn to run after every change. The returned func
// unregisters it.
func (v *Viewport) OnRedraw(fn func(State)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextCB
	v.nextCB++
	v.callbacks[id] = fn
	return func() {
		v.mu.Lock()
		delete(v.callbacks, id)
		v.mu.Unlock()
	}
}

// update applies mutate and notifies observers if the state changed.
func (v *Viewport) update(mutate func(*State)) State {
	v.mu.Lock()
	next := v.state
	mutate(&next)
	next.Zoom = v.clamp(next.Zoom)
	next.Revision = v.state.Revision
	if next == v.state {
		v.mu.Unlock()
		return next
	}
	next.Revision++
	v.state = next
	cbs := make([]func(State), 0, len(v.callbacks))
	for i := 0; i < v.nextCB; i++ {
		if fn, ok := v.callbacks[i]; ok {
			cbs = append(cbs, fn)
		}
	}
	v.mu.Unlock()

	for _, fn := range cbs {
		fn(next)
	}
	return next
}

// State returns the current snapshot.
func (v *Viewport) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// ZoomFactor returns the current scale factor.
func (v *Viewport) ZoomFactor() float64 {
	return v.State().ZoomFactor()
}

// ScreenToWorld maps a screen point to world coordinates.
func (v *Viewport) ScreenToWorld(px, py float64) geometry.Point {
	s := v.State()
	f := s.ZoomFactor()
	return geometry.Pt((px-s.PanX)/f, (py-s.PanY)/f)
}

// WorldToScreen maps a world point to screen coordinates.
func (v *Viewport) WorldToScreen(x, y float64) geometry.Point {
	s := v.State()
	f := s.ZoomFactor()
	return geometry.Pt(x*f+s.PanX, y*f+s.PanY)
}

// SnapToGrid rounds to the nearest grid intersection when snapping is on.
func (v *Viewport) SnapToGrid(x, y float64) geometry.Point {
	s := v.State()
	if !s.SnapEnabled || s.GridSize <= 0 {
		return geometry.Pt(x, y)
	}
	g := s.GridSize
	return geometry.Pt(math.Round(x/g)*g, math.Round(y/g)*g)
}

// SetZoom sets the zoom percentage, clamped to the valid range.
func (v *Viewport) SetZoom(z float64) State {
	return v.update(func(s *State) { s.Zoom = z })
}

// AdjustZoom changes the zoom by delta percentage points.
func (v *Viewport) AdjustZoom(delta float64) State {
	return v.update(func(s *State) { s.Zoom += delta })
}

// ZoomAt changes the zoom while keeping the world point under the screen
// position fixed.
func (v *Viewport) ZoomAt(screen geometry.Point, z float64) State {
	return v.update(func(s *State) {
		f := s.ZoomFactor()
		world := geometry.Pt((screen.X-s.PanX)/f, (screen.Y-s.PanY)/f)
		s.Zoom = v.clamp(z)
		nf := s.ZoomFactor()
		s.PanX = screen.X - world.X*nf
		s.PanY = screen.Y - world.Y*nf
	})
}

// Pan shifts the pan offset by dx, dy screen pixels.
func (v *Viewport) Pan(dx, dy float64) State {
	return v.update(func(s *State) {
		s.PanX += dx
		s.PanY += dy
	})
}

// SetPan sets the pan offset.
func (v *Viewport) SetPan(x, y float64) State {
	return v.update(func(s *State) { s.PanX, s.PanY = x, y })
}

// SetGridSize changes the grid spacing; non-positive sizes are ignored.
func (v *Viewport) SetGridSize(g float64) State {
	return v.update(func(s *State) {
		if g > 0 {
			s.GridSize = g
		}
	})
}

func (v *Viewport) SetGridVisible(on bool) State {
	return v.update(func(s *State) { s.GridVisible = on })
}

func (v *Viewport) SetSnapEnabled(on bool) State {
	return v.update(func(s *State) { s.SnapEnabled = on })
}

// Apply replaces every user-settable field with those of next. The
// revision is managed by the viewport.
func (v *Viewport) Apply(next State) State {
	return v.update(func(s *State) {
		s.PanX, s.PanY = next.PanX, next.PanY
		if next.Zoom > 0 {
			s.Zoom = next.Zoom
		}
		if next.GridSize > 0 {
			s.GridSize = next.GridSize
		}
		s.GridVisible, s.SnapEnabled = next.GridVisible, next.SnapEnabled
	})
}

// Reset restores the default zoom and clears the pan.
func (v *Viewport) Reset() State {
	return v.update(func(s *State) {
		s.PanX, s.PanY = 0, 0
		s.Zoom = v.opts.DefaultZoom
	})
}

// ContentBounds returns the union of the elements' bounds.
func ContentBounds(elements []*models.Element) (geometry.Rect, bool) {
	var (
		out   geometry.Rect
		found bool
	)
	for _, e := range elements {
		b, ok := e.Bounds()
		if !ok {
			continue
		}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

// FitAll zooms and pans so every element fits the container with padding,
// centered. It returns false and leaves the viewport alone when there is
// nothing to fit.
func (v *Viewport) FitAll(elements []*models.Element, container Size) (State, bool) {
	bounds, ok := ContentBounds(elements)
	if !ok || container.Width <= 0 || container.Height <= 0 {
		return v.State(), false
	}
	bounds = bounds.Inflate(v.opts.FitPadding)
	zoom := v.clamp(math.Min(container.Width/bounds.Width, container.Height/bounds.Height) * 100)
	f := zoom / 100
	c := bounds.Center()
	return v.update(func(s *State) {
		s.Zoom = zoom
		s.PanX = container.Width/2 - c.X*f
		s.PanY = container.Height/2 - c.Y*f
	}), true
}
