package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/seat-planner/backend/internal/geometry"
)

// ErrUnknownElementType is returned when a record names no known shape.
var ErrUnknownElementType = errors.New("unknown element type")

// ElementRecord is the flat wire form of an Element used by the JSON and
// msgpack codecs. Only the fields of the record's Type are meaningful.
type ElementRecord struct {
	ID       string      `json:"id" msgpack:"id"`
	Type     ElementType `json:"type" msgpack:"type"`
	X        float64     `json:"x" msgpack:"x"`
	Y        float64     `json:"y" msgpack:"y"`
	Rotation float64     `json:"rotation" msgpack:"rotation"`
	Label    string      `json:"label,omitempty" msgpack:"label,omitempty"`

	// Tables
	Radius          float64 `json:"radius,omitempty" msgpack:"radius,omitempty"`
	Seats           int     `json:"seats,omitempty" msgpack:"seats,omitempty"`
	Up              int     `json:"up,omitempty" msgpack:"up,omitempty"`
	Down            int     `json:"down,omitempty" msgpack:"down,omitempty"`
	Left            int     `json:"left,omitempty" msgpack:"left,omitempty"`
	Right           int     `json:"right,omitempty" msgpack:"right,omitempty"`
	ShowLabel       *bool   `json:"showLabel,omitempty" msgpack:"showLabel,omitempty"`
	ShowChairLabels *bool   `json:"showChairLabels,omitempty" msgpack:"showChairLabels,omitempty"`

	// Shared by rectangle tables and text boxes
	Width  float64 `json:"width,omitempty" msgpack:"width,omitempty"`
	Height float64 `json:"height,omitempty" msgpack:"height,omitempty"`

	// Rows and lines
	StartX        float64   `json:"startX,omitempty" msgpack:"startX,omitempty"`
	StartY        float64   `json:"startY,omitempty" msgpack:"startY,omitempty"`
	EndX          float64   `json:"endX,omitempty" msgpack:"endX,omitempty"`
	EndY          float64   `json:"endY,omitempty" msgpack:"endY,omitempty"`
	SeatCount     int       `json:"seatCount,omitempty" msgpack:"seatCount,omitempty"`
	SeatSpacing   float64   `json:"seatSpacing,omitempty" msgpack:"seatSpacing,omitempty"`
	Segments      []Segment `json:"segments,omitempty" msgpack:"segments,omitempty"`
	TotalSegments int       `json:"totalSegments,omitempty" msgpack:"totalSegments,omitempty"`
	TotalSeats    int       `json:"totalSeats,omitempty" msgpack:"totalSeats,omitempty"`
	Thickness     float64   `json:"thickness,omitempty" msgpack:"thickness,omitempty"`
	Color         string    `json:"color,omitempty" msgpack:"color,omitempty"`

	// Polygons
	Points      []geometry.Point `json:"points,omitempty" msgpack:"points,omitempty"`
	Closed      bool             `json:"closed,omitempty" msgpack:"closed,omitempty"`
	FillColor   string           `json:"fillColor,omitempty" msgpack:"fillColor,omitempty"`
	BorderColor string           `json:"borderColor,omitempty" msgpack:"borderColor,omitempty"`

	// Text
	Text            string  `json:"text,omitempty" msgpack:"text,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty" msgpack:"fontSize,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty" msgpack:"fontFamily,omitempty"`
	FontColor       string  `json:"fontColor,omitempty" msgpack:"fontColor,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty" msgpack:"backgroundColor,omitempty"`
	BorderWidth     float64 `json:"borderWidth,omitempty" msgpack:"borderWidth,omitempty"`
	Padding         float64 `json:"padding,omitempty" msgpack:"padding,omitempty"`
}

// Record converts e to its wire form.
func (e *Element) Record() ElementRecord {
	r := ElementRecord{
		ID:       e.ID,
		Type:     e.Type(),
		X:        e.X,
		Y:        e.Y,
		Rotation: e.Rotation,
		Label:    e.Label,
	}
	switch s := e.Shape.(type) {
	case *RoundTable:
		r.Radius, r.Seats = s.Radius, s.Seats
		r.ShowLabel, r.ShowChairLabels = cloneBool(s.ShowLabel), cloneBool(s.ShowChairLabels)
	case *RectangleTable:
		r.Width, r.Height = s.Width, s.Height
		r.Up, r.Down, r.Left, r.Right = s.Up, s.Down, s.Left, s.Right
		r.ShowLabel, r.ShowChairLabels = cloneBool(s.ShowLabel), cloneBool(s.ShowChairLabels)
	case *SeatingRow:
		r.EndX, r.EndY = s.EndX, s.EndY
		r.SeatCount, r.SeatSpacing = s.SeatCount, s.SeatSpacing
		r.Segments = slices.Clone(s.Segments)
		r.TotalSegments, r.TotalSeats = s.TotalSegments, s.TotalSeats
	case *Line:
		r.StartX, r.StartY, r.EndX, r.EndY = s.StartX, s.StartY, s.EndX, s.EndY
		r.Thickness, r.Color = s.Thickness, s.Color
	case *Polygon:
		r.Points = slices.Clone(s.Points)
		r.Closed = s.Closed
		r.FillColor, r.BorderColor = s.FillColor, s.BorderColor
	case *Text:
		r.Text = s.Text
		r.FontSize, r.FontFamily, r.FontColor = s.FontSize, s.FontFamily, s.FontColor
		r.BackgroundColor, r.BorderColor, r.BorderWidth = s.BackgroundColor, s.BorderColor, s.BorderWidth
		r.Width, r.Height, r.Padding = s.Width, s.Height, s.Padding
	}
	return r
}

// Element converts a wire record back into an Element.
func (r ElementRecord) Element() (*Element, error) {
	e := &Element{ID: r.ID, X: r.X, Y: r.Y, Rotation: r.Rotation, Label: r.Label}
	switch r.Type {
	case TypeRoundTable:
		e.Shape = &RoundTable{Radius: r.Radius, Seats: r.Seats,
			ShowLabel: cloneBool(r.ShowLabel), ShowChairLabels: cloneBool(r.ShowChairLabels)}
	case TypeRectangleTable:
		e.Shape = &RectangleTable{Width: r.Width, Height: r.Height,
			Up: r.Up, Down: r.Down, Left: r.Left, Right: r.Right,
			ShowLabel: cloneBool(r.ShowLabel), ShowChairLabels: cloneBool(r.ShowChairLabels)}
	case TypeSeatingRow:
		e.Shape = &SeatingRow{EndX: r.EndX, EndY: r.EndY, SeatCount: r.SeatCount, SeatSpacing: r.SeatSpacing,
			Segments: slices.Clone(r.Segments), TotalSegments: r.TotalSegments, TotalSeats: r.TotalSeats}
	case TypeLine:
		e.Shape = &Line{StartX: r.StartX, StartY: r.StartY, EndX: r.EndX, EndY: r.EndY,
			Thickness: r.Thickness, Color: r.Color}
	case TypePolygon:
		e.Shape = &Polygon{Points: slices.Clone(r.Points), Closed: r.Closed,
			FillColor: r.FillColor, BorderColor: r.BorderColor}
	case TypeText:
		e.Shape = &Text{Text: r.Text, FontSize: r.FontSize, FontFamily: r.FontFamily, FontColor: r.FontColor,
			BackgroundColor: r.BackgroundColor, BorderColor: r.BorderColor, BorderWidth: r.BorderWidth,
			Width: r.Width, Height: r.Height, Padding: r.Padding}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownElementType, r.Type)
	}
	return e, nil
}

// MarshalJSON encodes the element in its flat record form.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}

// UnmarshalJSON decodes a flat record into e.
func (e *Element) UnmarshalJSON(data []byte) error {
	var r ElementRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	el, err := r.Element()
	if err != nil {
		return err
	}
	*e = *el
	return nil
}

// ApplyPatch merges partial record fields (JSON object keys as in
// ElementRecord) into a copy of e. The id and type can not be changed.
func ApplyPatch(e *Element, patch map[string]json.RawMessage) (*Element, error) {
	base, err := json.Marshal(e.Record())
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if k == "id" || k == "type" {
			continue
		}
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var r ElementRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}
	return r.Element()
}
