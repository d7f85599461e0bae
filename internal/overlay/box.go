// Package overlay computes screen-space selection boxes and drives the
// selection overlay frame loop.
package overlay

import (
	"github.com/seat-planner/backend/internal/chairs"
	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/viewport"
)

// Tag is the overlay style class of a box.
type Tag string

const (
	TagTable   Tag = "table"
	TagRow     Tag = "row"
	TagLine    Tag = "line"
	TagPolygon Tag = "polygon"
)

const (
	// Padding is added around the element in world units.
	Padding = 10.0
	// ChairSize is the world-space footprint of one chair.
	ChairSize = 20.0
)

// Box is a rotated rectangle in screen space, centered on X, Y.
type Box struct {
	ID       string  `json:"id"`
	Tag      Tag     `json:"tag"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// ComputeBox converts el's own geometry into a screen-space selection box.
// It returns false for elements without enough geometry to frame.
func ComputeBox(el *models.Element, vp viewport.State) (Box, bool) {
	var (
		center   geometry.Point
		w, h     float64
		rotation = el.Rotation
		tag      Tag
	)
	switch s := el.Shape.(type) {
	case *models.RoundTable:
		tag = TagTable
		center = geometry.Pt(el.X, el.Y)
		w = 2*(s.Radius+chairs.ChairOffset) + ChairSize + 2*Padding
		h = w
	case *models.RectangleTable:
		tag = TagTable
		center = geometry.Pt(el.X, el.Y)
		w = s.Width + 2*(chairs.ChairOffset+Padding) + ChairSize
		h = s.Height + 2*(chairs.ChairOffset+Padding) + ChairSize
	case *models.Text:
		tag = TagTable
		center = geometry.Pt(el.X+s.Width/2, el.Y+s.Height/2)
		w, h = s.Width+2*Padding, s.Height+2*Padding
	case *models.SeatingRow:
		tag = TagRow
		if s.IsSegmented() {
			b, ok := geometry.Bounds(el.Vertices())
			if !ok {
				return Box{}, false
			}
			center, rotation = b.Center(), 0
			w, h = b.Width+ChairSize+2*Padding, b.Height+ChairSize+2*Padding
			break
		}
		start, end := geometry.Pt(el.X, el.Y), geometry.Pt(s.EndX, s.EndY)
		center = geometry.Midpoint(start, end)
		w = geometry.Distance(start, end) + ChairSize + 2*Padding
		h = ChairSize + 2*Padding
		rotation = segmentRotation(start, end, el.Rotation)
	case *models.Line:
		tag = TagLine
		start, end := geometry.Pt(s.StartX, s.StartY), geometry.Pt(s.EndX, s.EndY)
		center = geometry.Midpoint(start, end)
		w = geometry.Distance(start, end) + 2*Padding
		h = s.Thickness + 2*Padding
		rotation = segmentRotation(start, end, 0)
	case *models.Polygon:
		tag = TagPolygon
		b, ok := geometry.Bounds(s.Points)
		if !ok {
			return Box{}, false
		}
		center, rotation = b.Center(), 0
		w, h = b.Width+2*Padding, b.Height+2*Padding
	default:
		return Box{}, false
	}

	f := vp.ZoomFactor()
	return Box{
		ID:       el.ID,
		Tag:      tag,
		X:        center.X*f + vp.PanX,
		Y:        center.Y*f + vp.PanY,
		Width:    w * f,
		Height:   h * f,
		Rotation: rotation,
	}, true
}

func segmentRotation(start, end geometry.Point, fallback float64) float64 {
	if start.Equal(end) {
		return fallback
	}
	d := end.Sub(start)
	return geometry.Degrees(d.X, d.Y)
}
