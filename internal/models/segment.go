package models

import "github.com/seat-planner/backend/internal/geometry"

// Segment is one straight run of a segmented seating row. For SegmentIndex > 0
// the start point equals the last chair position of the previous segment.
type Segment struct {
	ID           string  `json:"id" msgpack:"id"`
	StartX       float64 `json:"startX" msgpack:"startX"`
	StartY       float64 `json:"startY" msgpack:"startY"`
	EndX         float64 `json:"endX" msgpack:"endX"`
	EndY         float64 `json:"endY" msgpack:"endY"`
	SeatCount    int     `json:"seatCount" msgpack:"seatCount"`
	SeatSpacing  float64 `json:"seatSpacing" msgpack:"seatSpacing"`
	Rotation     float64 `json:"rotation" msgpack:"rotation"`
	SegmentIndex int     `json:"segmentIndex" msgpack:"segmentIndex"`
}

func (s Segment) Start() geometry.Point { return geometry.Pt(s.StartX, s.StartY) }
func (s Segment) End() geometry.Point   { return geometry.Pt(s.EndX, s.EndY) }

// Length is the raw start-to-end distance.
func (s Segment) Length() float64 { return geometry.Distance(s.Start(), s.End()) }

// Translated returns a copy of s with all four coordinates moved by (dx, dy).
func (s Segment) Translated(dx, dy float64) Segment {
	s.StartX += dx
	s.StartY += dy
	s.EndX += dx
	s.EndY += dy
	return s
}
