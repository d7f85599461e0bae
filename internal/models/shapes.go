package models

import (
	"slices"

	"github.com/seat-planner/backend/internal/geometry"
)

// Default styling applied by the element store when a field is unset.
const (
	DefaultLineThickness   = 2.0
	DefaultLineColor       = "#000000"
	DefaultPolygonFill     = "rgba(200, 200, 200, 0.3)"
	DefaultPolygonBorder   = "#333333"
	DefaultFontSize        = 16.0
	DefaultFontFamily      = "Arial"
	DefaultFontColor       = "#000000"
	DefaultTextBackground  = "transparent"
	DefaultTextBorderColor = "transparent"
	DefaultTextWidth       = 120.0
	DefaultTextHeight      = 40.0
	DefaultTextPadding     = 4.0
)

// RoundTable is centered on the element's X/Y.
type RoundTable struct {
	Radius          float64
	Seats           int
	ShowLabel       *bool
	ShowChairLabels *bool
}

func (*RoundTable) Kind() ElementType { return TypeRoundTable }

func (t *RoundTable) cloneShape() Shape {
	c := *t
	c.ShowLabel = cloneBool(t.ShowLabel)
	c.ShowChairLabels = cloneBool(t.ShowChairLabels)
	return &c
}

// RectangleTable is centered on the element's X/Y with per-side chair counts.
type RectangleTable struct {
	Width           float64
	Height          float64
	Up              int
	Down            int
	Left            int
	Right           int
	ShowLabel       *bool
	ShowChairLabels *bool
}

func (*RectangleTable) Kind() ElementType { return TypeRectangleTable }

func (t *RectangleTable) cloneShape() Shape {
	c := *t
	c.ShowLabel = cloneBool(t.ShowLabel)
	c.ShowChairLabels = cloneBool(t.ShowChairLabels)
	return &c
}

// SeatingRow is either simple (start at X/Y, end at EndX/EndY) or segmented,
// in which case Segments is non-empty and the simple fields are ignored.
type SeatingRow struct {
	EndX          float64
	EndY          float64
	SeatCount     int
	SeatSpacing   float64
	Segments      []Segment
	TotalSegments int
	TotalSeats    int
}

func (*SeatingRow) Kind() ElementType { return TypeSeatingRow }

func (r *SeatingRow) cloneShape() Shape {
	c := *r
	c.Segments = slices.Clone(r.Segments)
	return &c
}

// IsSegmented reports whether the row is made of chained segments.
func (r *SeatingRow) IsSegmented() bool { return len(r.Segments) > 0 }

type Line struct {
	StartX    float64
	StartY    float64
	EndX      float64
	EndY      float64
	Thickness float64
	Color     string
}

func (*Line) Kind() ElementType { return TypeLine }

func (l *Line) cloneShape() Shape {
	c := *l
	return &c
}

// Polygon is open unless Closed is set, which requires at least three points.
type Polygon struct {
	Points      []geometry.Point
	Closed      bool
	FillColor   string
	BorderColor string
}

func (*Polygon) Kind() ElementType { return TypePolygon }

func (p *Polygon) cloneShape() Shape {
	c := *p
	c.Points = slices.Clone(p.Points)
	return &c
}

// IsClosed reports whether the polygon is a closed area.
func (p *Polygon) IsClosed() bool { return p.Closed && len(p.Points) >= 3 }

// Text is a free-form label box anchored at its top-left corner.
type Text struct {
	Text            string
	FontSize        float64
	FontFamily      string
	FontColor       string
	BackgroundColor string
	BorderColor     string
	BorderWidth     float64
	Width           float64
	Height          float64
	Padding         float64
}

func (*Text) Kind() ElementType { return TypeText }

func (t *Text) cloneShape() Shape {
	c := *t
	return &c
}

// ApplyDefaults fills unset styling fields in place. It is only called on
// freshly cloned elements.
func ApplyDefaults(e *Element) {
	switch s := e.Shape.(type) {
	case *RoundTable:
		s.ShowLabel = orTrue(s.ShowLabel)
		s.ShowChairLabels = orTrue(s.ShowChairLabels)
	case *RectangleTable:
		s.ShowLabel = orTrue(s.ShowLabel)
		s.ShowChairLabels = orTrue(s.ShowChairLabels)
	case *Line:
		if s.Thickness == 0 {
			s.Thickness = DefaultLineThickness
		}
		if s.Color == "" {
			s.Color = DefaultLineColor
		}
	case *Polygon:
		if s.FillColor == "" {
			s.FillColor = DefaultPolygonFill
		}
		if s.BorderColor == "" {
			s.BorderColor = DefaultPolygonBorder
		}
		if s.Points == nil {
			s.Points = []geometry.Point{}
		}
	case *Text:
		if s.FontSize == 0 {
			s.FontSize = DefaultFontSize
		}
		if s.FontFamily == "" {
			s.FontFamily = DefaultFontFamily
		}
		if s.FontColor == "" {
			s.FontColor = DefaultFontColor
		}
		if s.BackgroundColor == "" {
			s.BackgroundColor = DefaultTextBackground
		}
		if s.BorderColor == "" {
			s.BorderColor = DefaultTextBorderColor
		}
		if s.Width == 0 {
			s.Width = DefaultTextWidth
		}
		if s.Height == 0 {
			s.Height = DefaultTextHeight
		}
		if s.Padding == 0 {
			s.Padding = DefaultTextPadding
		}
	}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

func orTrue(b *bool) *bool {
	if b == nil {
		return Bool(true)
	}
	return b
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	return Bool(*b)
}
