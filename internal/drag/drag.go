// Package drag implements the pointer drag protocol: a press becomes a drag
// only after the pointer travels past a threshold, live moves update the
// store directly, and the release records a single Move command.
package drag

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/seat-planner/backend/internal/commands"
	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/history"
	"github.com/seat-planner/backend/internal/models"
	"go.uber.org/zap"
)

// State is the drag machine state.
type State int

const (
	Idle State = iota
	PotentialDrag
	Dragging
)

func (s State) String() string {
	switch s {
	case PotentialDrag:
		return "potential-drag"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

const (
	DefaultThreshold = 5.0
	DefaultCooldown  = 100 * time.Millisecond
)

// Executor runs a command and records it in history.
type Executor interface {
	Execute(history.Command)
}

// Options configures a Machine. Zero values take the defaults.
type Options struct {
	Threshold float64
	Cooldown  time.Duration
	Clock     clockwork.Clock
	// ZoomFactor converts view-space deltas to world space. Nil means 1.
	ZoomFactor func() float64
	Logger     *zap.Logger
}

// Machine tracks at most one drag at a time.
type Machine struct {
	stores commands.Stores
	exec   Executor
	opts   Options

	mu            sync.Mutex
	state         State
	origin        *models.Element
	anchor        geometry.Point
	pointer       geometry.Point
	cooldownUntil time.Time
}

// New creates an idle machine that moves elements in stores and records
// finished drags through exec.
func New(stores commands.Stores, exec Executor, opts Options) *Machine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Machine{stores: stores, exec: exec, opts: opts}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ItemID returns the id of the element being dragged, if any.
func (m *Machine) ItemID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.origin == nil {
		return ""
	}
	return m.origin.ID
}

// Prepare arms a potential drag of id from the view-space pointer position.
// It refuses when another drag is in flight or the element has no position.
func (m *Machine) Prepare(id string, px, py float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return false
	}
	el, ok := m.stores.Elements.Get(id)
	if !ok {
		m.opts.Logger.Warn("drag target not found", zap.String("element_id", id))
		return false
	}
	anchor, ok := el.Position()
	if !ok {
		m.opts.Logger.Warn("drag target has no position", zap.String("element_id", id), zap.String("type", string(el.Type())))
		return false
	}
	m.state = PotentialDrag
	m.origin = el.Clone()
	m.anchor = anchor
	m.pointer = geometry.Pt(px, py)
	return true
}

// Move handles a pointer move. It reports whether the element moved.
func (m *Machine) Move(px, py float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case PotentialDrag:
		if geometry.Distance(m.pointer, geometry.Pt(px, py)) < m.opts.Threshold {
			return false
		}
		m.state = Dragging
		return m.apply(px, py)
	case Dragging:
		return m.apply(px, py)
	default:
		return false
	}
}

// apply places the element at origin plus the total pointer delta in world
// space, so intermediate moves never accumulate error.
func (m *Machine) apply(px, py float64) bool {
	zoom := 1.0
	if m.opts.ZoomFactor != nil {
		if z := m.opts.ZoomFactor(); z > 0 {
			zoom = z
		}
	}
	dx, dy := (px-m.pointer.X)/zoom, (py-m.pointer.Y)/zoom
	_, ok := m.stores.Elements.Replace(m.origin.Translated(dx, dy))
	if !ok {
		m.opts.Logger.Warn("dragged element disappeared", zap.String("element_id", m.origin.ID))
		m.reset()
	}
	return ok
}

// End handles pointer release. A drag with a net displacement records one
// Move command; a plain click records nothing. It reports whether a command
// was recorded.
func (m *Machine) End() bool {
	m.mu.Lock()
	if m.state != Dragging {
		m.reset()
		m.mu.Unlock()
		return false
	}
	origin, anchor := m.origin, m.anchor
	m.cooldownUntil = m.opts.Clock.Now().Add(m.opts.Cooldown)
	m.reset()
	m.mu.Unlock()

	current, ok := m.stores.Elements.Get(origin.ID)
	if !ok {
		return false
	}
	if pos, _ := current.Position(); pos.Equal(anchor) {
		return false
	}
	m.exec.Execute(commands.NewMoveBetween(m.stores, origin, current))
	return true
}

// Cancel aborts any drag and puts the element back where it started,
// without touching history.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return false
	}
	if m.state == Dragging {
		m.stores.Elements.Replace(m.origin)
	}
	m.reset()
	return true
}

// JustEnded reports whether a drag finished within the cooldown window.
// Click-to-deselect handlers consult it so a drop does not deselect.
func (m *Machine) JustEnded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.Clock.Now().Before(m.cooldownUntil)
}

func (m *Machine) reset() {
	m.state = Idle
	m.origin = nil
}
