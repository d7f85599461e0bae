package overlay

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/viewport"
	"go.uber.org/zap"
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultFreshness     = 100 * time.Millisecond
)

// ElementSource looks up elements by id.
type ElementSource interface {
	Get(id string) (*models.Element, bool)
}

// ViewSource provides the current viewport.
type ViewSource interface {
	State() viewport.State
}

// Frame is one rendered overlay.
type Frame struct {
	Boxes    []Box          `json:"boxes"`
	Viewport viewport.State `json:"viewport"`
	At       time.Time      `json:"at"`
}

// Painter draws frames. Paint must not mutate layout state.
type Painter interface {
	Paint(Frame) error
}

// Options configures a Renderer. Zero values take the defaults.
type Options struct {
	FrameInterval time.Duration
	Freshness     time.Duration
	Animate       bool
	Clock         clockwork.Clock
	Logger        *zap.Logger
}

type cached struct {
	box      Box
	ok       bool
	element  *models.Element
	revision uint64
	at       time.Time
}

// Renderer keeps the set of boxed elements and a short-lived box cache.
// Entries are recomputed once stale, or immediately when the element or the
// viewport changes.
type Renderer struct {
	elements ElementSource
	view     ViewSource
	painter  Painter
	opts     Options

	mu      sync.Mutex
	ids     []string
	cache   map[string]cached
	animate bool
	frames  int
}

// NewRenderer creates a renderer with no boxes. painter may be nil.
func NewRenderer(elements ElementSource, view ViewSource, painter Painter, opts Options) *Renderer {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Renderer{
		elements: elements,
		view:     view,
		painter:  painter,
		opts:     opts,
		cache:    make(map[string]cached),
		animate:  opts.Animate,
	}
}

// Set adds id to the boxed set.
func (r *Renderer) Set(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.ids, id) {
		r.ids = append(r.ids, id)
	}
	delete(r.cache, id)
}

// Remove drops id from the boxed set.
func (r *Renderer) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = slices.DeleteFunc(r.ids, func(s string) bool { return s == id })
	delete(r.cache, id)
}

// Clear drops every box.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = nil
	r.cache = make(map[string]cached)
}

// IDs returns the boxed element ids.
func (r *Renderer) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ids)
}

// SetAnimation turns the frame loop's painting on or off.
func (r *Renderer) SetAnimation(on bool) {
	r.mu.Lock()
	r.animate = on
	r.mu.Unlock()
}

// Frames returns how many frames were painted.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Boxes returns the current boxes, reusing fresh cache entries.
func (r *Renderer) Boxes() Frame {
	vp := r.view.State()
	now := r.opts.Clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	frame := Frame{Viewport: vp, At: now, Boxes: make([]Box, 0, len(r.ids))}
	for _, id := range r.ids {
		el, ok := r.elements.Get(id)
		if !ok {
			delete(r.cache, id)
			continue
		}
		c, hit := r.cache[id]
		if !hit || c.element != el || c.revision != vp.Revision || now.Sub(c.at) >= r.opts.Freshness {
			box, ok := ComputeBox(el, vp)
			c = cached{box: box, ok: ok, element: el, revision: vp.Revision, at: now}
			r.cache[id] = c
		}
		if c.ok {
			frame.Boxes = append(frame.Boxes, c.box)
		}
	}
	return frame
}

// Render computes the current frame and hands it to the painter. It is
// idempotent and safe to call every frame.
func (r *Renderer) Render() Frame {
	frame := r.Boxes()
	if r.painter != nil {
		if err := r.painter.Paint(frame); err != nil {
			r.opts.Logger.Warn("overlay paint failed", zap.Error(err))
		}
	}
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
	return frame
}

func (r *Renderer) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.animate && len(r.ids) > 0
}

// Run paints a frame every interval while animation is on and at least one
// box exists. It returns when ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := r.opts.Clock.NewTicker(r.opts.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if r.active() {
				r.Render()
			}
		}
	}
}
