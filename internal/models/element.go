// Package models contains domain types for the seat planner.
package models

import (
	"fmt"
	"math"

	"github.com/seat-planner/backend/internal/geometry"
)

// ElementType discriminates the Shape variants of an Element.
type ElementType string

const (
	TypeRoundTable     ElementType = "roundTable"
	TypeRectangleTable ElementType = "rectangleTable"
	TypeSeatingRow     ElementType = "seatingRow"
	TypeLine           ElementType = "line"
	TypePolygon        ElementType = "polygon"
	TypeText           ElementType = "text"
)

// Shape is the closed set of per-type element payloads. The unexported method
// keeps the set sealed to this package.
type Shape interface {
	Kind() ElementType
	cloneShape() Shape
}

// Element is a placed shape in the layout. Elements held by the store are
// treated as immutable: every update produces a fresh *Element so observers
// can detect changes by pointer identity.
type Element struct {
	ID       string
	X        float64
	Y        float64
	Rotation float64
	Label    string
	Shape    Shape
}

// Type returns the discriminator of the element's shape, or "" if it has none.
func (e *Element) Type() ElementType {
	if e == nil || e.Shape == nil {
		return ""
	}
	return e.Shape.Kind()
}

// Clone returns a deep copy of e.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	if e.Shape != nil {
		c.Shape = e.Shape.cloneShape()
	}
	return &c
}

// Position returns the element's anchor. Point-array shapes (polygons) use
// the centroid of their points; everything else uses X/Y. ok is false when
// the element carries no usable position.
func (e *Element) Position() (geometry.Point, bool) {
	if e == nil || e.Shape == nil {
		return geometry.Point{}, false
	}
	if p, isPoly := e.Shape.(*Polygon); isPoly {
		return geometry.Centroid(p.Points)
	}
	if math.IsNaN(e.X) || math.IsNaN(e.Y) {
		return geometry.Point{}, false
	}
	return geometry.Pt(e.X, e.Y), true
}

// HasPointArray reports whether the element's geometry is a list of points.
func (e *Element) HasPointArray() bool {
	_, ok := e.Shape.(*Polygon)
	return ok
}

// Translated returns a copy of e moved by (dx, dy). Every coordinate the
// shape carries moves by the same delta so the shape is preserved.
func (e *Element) Translated(dx, dy float64) *Element {
	c := e.Clone()
	c.X += dx
	c.Y += dy
	switch s := c.Shape.(type) {
	case *RoundTable, *RectangleTable, *Text:
	case *SeatingRow:
		s.EndX += dx
		s.EndY += dy
		for i := range s.Segments {
			s.Segments[i] = s.Segments[i].Translated(dx, dy)
		}
	case *Line:
		s.StartX += dx
		s.StartY += dy
		s.EndX += dx
		s.EndY += dy
	case *Polygon:
		s.Points = geometry.TranslateAll(s.Points, dx, dy)
	default:
		panic(fmt.Sprintf("models: unhandled shape %T", s))
	}
	return c
}

// Vertices returns the element's geometry vertices for point-based hit tests.
// Shapes without vertex geometry return nil.
func (e *Element) Vertices() []geometry.Point {
	switch s := e.Shape.(type) {
	case *Line:
		return []geometry.Point{geometry.Pt(s.StartX, s.StartY), geometry.Pt(s.EndX, s.EndY)}
	case *Polygon:
		return s.Points
	case *SeatingRow:
		if !s.IsSegmented() {
			return nil
		}
		pts := make([]geometry.Point, 0, len(s.Segments)*2)
		for _, seg := range s.Segments {
			pts = append(pts, seg.Start(), seg.End())
		}
		return pts
	default:
		return nil
	}
}

// Bounds returns the world-space bounding box of the element's own geometry.
func (e *Element) Bounds() (geometry.Rect, bool) {
	switch s := e.Shape.(type) {
	case *RoundTable:
		return geometry.RectAround(geometry.Pt(e.X, e.Y), 2*s.Radius, 2*s.Radius), true
	case *RectangleTable:
		return geometry.RectAround(geometry.Pt(e.X, e.Y), s.Width, s.Height), true
	case *SeatingRow:
		if s.IsSegmented() {
			return geometry.Bounds(e.Vertices())
		}
		return geometry.RectFromCorners(geometry.Pt(e.X, e.Y), geometry.Pt(s.EndX, s.EndY)), true
	case *Line:
		return geometry.Bounds(e.Vertices())
	case *Polygon:
		return geometry.Bounds(s.Points)
	case *Text:
		return geometry.Rect{X: e.X, Y: e.Y, Width: s.Width, Height: s.Height}, true
	default:
		return geometry.Rect{}, false
	}
}

// SeatSignature summarizes the properties that decide how many chairs an
// element has and where they sit. Two elements with equal signatures share
// the same chair layout.
func (e *Element) SeatSignature() string {
	switch s := e.Shape.(type) {
	case *RoundTable:
		return fmt.Sprintf("round:%d:%g", s.Seats, s.Radius)
	case *RectangleTable:
		return fmt.Sprintf("rect:%d:%d:%d:%d:%g:%g", s.Up, s.Down, s.Left, s.Right, s.Width, s.Height)
	case *SeatingRow:
		if s.IsSegmented() {
			sig := "segrow"
			for _, seg := range s.Segments {
				sig += fmt.Sprintf(":%d", seg.SeatCount)
			}
			return sig
		}
		return fmt.Sprintf("row:%d", s.SeatCount)
	default:
		return ""
	}
}

// SeatCapacity returns how many chairs the element should own.
func (e *Element) SeatCapacity() int {
	switch s := e.Shape.(type) {
	case *RoundTable:
		return max(s.Seats, 0)
	case *RectangleTable:
		return max(s.Up, 0) + max(s.Down, 0) + max(s.Left, 0) + max(s.Right, 0)
	case *SeatingRow:
		if s.IsSegmented() {
			n := 0
			for i, seg := range s.Segments {
				n += seg.SeatCount
				if i > 0 {
					n-- // first chair is shared with the previous segment
				}
			}
			return n
		}
		return max(s.SeatCount, 0)
	default:
		return 0
	}
}

// HasSeats reports whether chairs can be attached to the element.
func (e *Element) HasSeats() bool {
	switch e.Shape.(type) {
	case *RoundTable, *RectangleTable, *SeatingRow:
		return true
	default:
		return false
	}
}
