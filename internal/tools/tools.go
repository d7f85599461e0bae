// Package tools implements the multi-click creation tools. Tools work in
// world coordinates and hand finished elements to a commit callback.
package tools

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/segment"
	"go.uber.org/zap"
)

// Tool is the active creation tool. The tools are mutually exclusive.
type Tool string

const (
	None                Tool = "none"
	RoundTable          Tool = "roundTable"
	RectangleTable      Tool = "rectangleTable"
	SeatingRow          Tool = "seatingRow"
	SegmentedSeatingRow Tool = "segmentedSeatingRow"
	Line                Tool = "line"
	Polygon             Tool = "polygon"
)

// ParseTool validates a tool name. The empty string means None.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case "", None:
		return None, nil
	case RoundTable, RectangleTable, SeatingRow, SegmentedSeatingRow, Line, Polygon:
		return t, nil
	default:
		return None, fmt.Errorf("unknown tool %q", s)
	}
}

// DefaultSnapRadius is how close a click must be to a polygon's first point
// to close it.
const DefaultSnapRadius = 10.0

// Options holds the geometry given to newly created elements.
type Options struct {
	SeatSpacing float64
	SnapRadius  float64
	TableRadius float64
	TableSeats  int
	RectWidth   float64
	RectHeight  float64
	RectSides   [4]int // up, down, left, right
	NewID       func() string
	Logger      *zap.Logger
}

// DefaultOptions returns the stock creation geometry.
func DefaultOptions() Options {
	return Options{
		SeatSpacing: segment.DefaultSpacing,
		SnapRadius:  DefaultSnapRadius,
		TableRadius: 50,
		TableSeats:  8,
		RectWidth:   120,
		RectHeight:  60,
		RectSides:   [4]int{3, 3, 1, 1},
		NewID:       uuid.NewString,
	}
}

// CommitFunc receives every finished element.
type CommitFunc func(*models.Element)

// Manager runs the active tool. At most one creation is in progress.
type Manager struct {
	opts   Options
	commit CommitFunc

	mu       sync.Mutex
	tool     Tool
	start    *geometry.Point
	pointer  geometry.Point
	points   []geometry.Point
	rowID    string
	segments []models.Segment
	current  *models.Segment
}

// NewManager creates a manager with no active tool.
func NewManager(opts Options, commit CommitFunc) *Manager {
	def := DefaultOptions()
	if opts.SeatSpacing <= 0 {
		opts.SeatSpacing = def.SeatSpacing
	}
	if opts.SnapRadius <= 0 {
		opts.SnapRadius = def.SnapRadius
	}
	if opts.TableRadius <= 0 {
		opts.TableRadius = def.TableRadius
	}
	if opts.TableSeats <= 0 {
		opts.TableSeats = def.TableSeats
	}
	if opts.RectWidth <= 0 || opts.RectHeight <= 0 {
		opts.RectWidth, opts.RectHeight = def.RectWidth, def.RectHeight
	}
	if opts.RectSides == [4]int{} {
		opts.RectSides = def.RectSides
	}
	if opts.NewID == nil {
		opts.NewID = def.NewID
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{opts: opts, commit: commit, tool: None}
}

// Active returns the active tool.
func (m *Manager) Active() Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tool
}

// InProgress reports whether a multi-click creation has started.
func (m *Manager) InProgress() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start != nil || len(m.points) > 0
}

// Activate switches tools, discarding any creation in progress.
func (m *Manager) Activate(t Tool) {
	m.mu.Lock()
	m.reset()
	m.tool = t
	m.mu.Unlock()
	m.opts.Logger.Debug("tool activated", zap.String("tool", string(t)))
}

func (m *Manager) reset() {
	m.tool = None
	m.start = nil
	m.points = nil
	m.rowID = ""
	m.segments = nil
	m.current = nil
}

// PointerDown handles a click at world position (x, y). It reports whether
// the active tool consumed the click.
func (m *Manager) PointerDown(x, y float64) bool {
	m.mu.Lock()
	p := geometry.Pt(x, y)
	m.pointer = p
	var done *models.Element

	switch m.tool {
	case None:
		m.mu.Unlock()
		return false
	case RoundTable:
		done = &models.Element{ID: m.opts.NewID(), X: x, Y: y,
			Shape: &models.RoundTable{Radius: m.opts.TableRadius, Seats: m.opts.TableSeats}}
	case RectangleTable:
		s := m.opts.RectSides
		done = &models.Element{ID: m.opts.NewID(), X: x, Y: y, Shape: &models.RectangleTable{
			Width: m.opts.RectWidth, Height: m.opts.RectHeight, Up: s[0], Down: s[1], Left: s[2], Right: s[3]}}
	case SeatingRow, Line:
		if m.start == nil {
			m.start = &p
			break
		}
		done = m.twoPointElement(m.opts.NewID(), p)
	case SegmentedSeatingRow:
		done = m.segmentClick(p)
	case Polygon:
		done = m.polygonClick(p)
	}

	if done != nil {
		m.reset()
	}
	m.mu.Unlock()
	if done != nil {
		m.emit(done)
	}
	return true
}

// PointerMove updates the live preview.
func (m *Manager) PointerMove(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointer = geometry.Pt(x, y)
	if m.current != nil {
		seg := segment.UpdateEndFromPointer(*m.current, x, y)
		m.current = &seg
	}
}

// DoubleClick finalizes a segmented row or an open polygon.
func (m *Manager) DoubleClick() bool {
	m.mu.Lock()
	var done *models.Element
	switch m.tool {
	case SegmentedSeatingRow:
		done = m.finishRow()
	case Polygon:
		if len(m.points) >= 2 {
			done = m.polygonElement(false)
		}
	}
	if done != nil {
		m.reset()
	}
	m.mu.Unlock()
	if done != nil {
		m.emit(done)
	}
	return done != nil
}

// Escape finalizes a segmented row that has committed segments and cancels
// everything else. It reports whether a tool was active.
func (m *Manager) Escape() bool {
	m.mu.Lock()
	if m.tool == None {
		m.mu.Unlock()
		return false
	}
	var done *models.Element
	if m.tool == SegmentedSeatingRow {
		done = m.finishRow()
	}
	m.reset()
	m.mu.Unlock()
	if done != nil {
		m.emit(done)
	}
	return true
}

// Preview returns the element the active tool would create from the
// current pointer, or nil when nothing is in progress.
func (m *Manager) Preview() *models.Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.tool {
	case SeatingRow, Line:
		if m.start == nil {
			return nil
		}
		return m.twoPointElement("", m.pointer)
	case SegmentedSeatingRow:
		if m.current == nil {
			return nil
		}
		segs := append(append([]models.Segment{}, m.segments...), *m.current)
		return rowElement("", segs, m.opts.SeatSpacing)
	case Polygon:
		if len(m.points) == 0 {
			return nil
		}
		pts := append(append([]geometry.Point{}, m.points...), m.pointer)
		return &models.Element{Shape: &models.Polygon{Points: pts}}
	default:
		return nil
	}
}

// Segments returns the committed segments of the row being drawn.
func (m *Manager) Segments() []models.Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Segment(nil), m.segments...)
}

func (m *Manager) emit(el *models.Element) {
	m.opts.Logger.Debug("element created", zap.String("element_id", el.ID), zap.String("type", string(el.Type())))
	if m.commit != nil {
		m.commit(el)
	}
}

func (m *Manager) twoPointElement(id string, end geometry.Point) *models.Element {
	s := *m.start
	if m.tool == Line {
		return &models.Element{ID: id, X: s.X, Y: s.Y,
			Shape: &models.Line{StartX: s.X, StartY: s.Y, EndX: end.X, EndY: end.Y}}
	}
	seg := segment.CreateSegment("", 0, s.X, s.Y, end.X, end.Y, m.opts.SeatSpacing)
	last := segment.EndPosition(seg)
	return &models.Element{ID: id, X: s.X, Y: s.Y, Rotation: seg.Rotation,
		Shape: &models.SeatingRow{EndX: last.X, EndY: last.Y, SeatCount: seg.SeatCount, SeatSpacing: seg.SeatSpacing}}
}

func (m *Manager) segmentClick(p geometry.Point) *models.Element {
	if m.current == nil {
		m.rowID = m.opts.NewID()
		m.start = &p
		seg := segment.CreateSegment(m.rowID, 0, p.X, p.Y, p.X, p.Y, m.opts.SeatSpacing)
		m.current = &seg
		return nil
	}
	seg := segment.UpdateEndFromPointer(*m.current, p.X, p.Y)
	if seg.SeatCount < 2 {
		// the second press of a double-click lands here
		return nil
	}
	m.segments = append(m.segments, seg)
	next := segment.NextSegmentStart(seg)
	cur := segment.CreateSegment(m.rowID, len(m.segments), next.X, next.Y, next.X, next.Y, m.opts.SeatSpacing)
	cur.Rotation = seg.Rotation
	m.current = &cur
	return nil
}

func (m *Manager) finishRow() *models.Element {
	if len(m.segments) == 0 {
		return nil
	}
	return rowElement(m.rowID, m.segments, m.opts.SeatSpacing)
}

func rowElement(id string, segs []models.Segment, spacing float64) *models.Element {
	metrics := segment.AggregateMetrics(segs)
	start := segs[0].Start()
	return &models.Element{ID: id, X: start.X, Y: start.Y, Shape: &models.SeatingRow{
		SeatSpacing:   spacing,
		Segments:      append([]models.Segment(nil), segs...),
		TotalSegments: metrics.TotalSegments,
		TotalSeats:    metrics.TotalSeats,
	}}
}

func (m *Manager) polygonClick(p geometry.Point) *models.Element {
	n := len(m.points)
	if n >= 3 && geometry.Distance(p, m.points[0]) <= m.opts.SnapRadius {
		return m.polygonElement(true)
	}
	if n > 0 && geometry.Distance(p, m.points[n-1]) < 1 {
		return nil
	}
	m.points = append(m.points, p)
	return nil
}

func (m *Manager) polygonElement(closed bool) *models.Element {
	pts := append([]geometry.Point(nil), m.points...)
	c, _ := geometry.Centroid(pts)
	return &models.Element{ID: m.opts.NewID(), X: c.X, Y: c.Y,
		Shape: &models.Polygon{Points: pts, Closed: closed}}
}
