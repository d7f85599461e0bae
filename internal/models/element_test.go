package models

import (
	"encoding/json"
	"testing"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement_CloneIsDeep(t *testing.T) {
	poly := &Element{ID: "p1", Shape: &Polygon{Points: []geometry.Point{{X: 1, Y: 1}}}}
	c := poly.Clone()
	c.Shape.(*Polygon).Points[0].X = 99

	assert.Equal(t, 1.0, poly.Shape.(*Polygon).Points[0].X)
	assert.NotSame(t, poly, c)
}

func TestElement_Position(t *testing.T) {
	t.Run("x/y shapes use the anchor", func(t *testing.T) {
		e := &Element{X: 10, Y: 20, Shape: &RoundTable{Radius: 50}}
		p, ok := e.Position()
		assert.True(t, ok)
		assert.Equal(t, geometry.Pt(10, 20), p)
	})

	t.Run("polygons use the centroid", func(t *testing.T) {
		e := &Element{Shape: &Polygon{Points: []geometry.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}}}
		p, ok := e.Position()
		assert.True(t, ok)
		assert.Equal(t, geometry.Pt(2, 2), p)
	})

	t.Run("empty polygon has no position", func(t *testing.T) {
		e := &Element{Shape: &Polygon{}}
		_, ok := e.Position()
		assert.False(t, ok)
	})

	t.Run("shapeless element has no position", func(t *testing.T) {
		_, ok := (&Element{}).Position()
		assert.False(t, ok)
	})
}

func TestElement_Translated(t *testing.T) {
	row := &Element{ID: "r", X: 0, Y: 0, Shape: &SeatingRow{
		Segments: []Segment{{StartX: 0, StartY: 0, EndX: 70, EndY: 0, SeatCount: 3, SeatSpacing: 35}},
	}}
	moved := row.Translated(5, -5)

	assert.Equal(t, 5.0, moved.X)
	assert.Equal(t, -5.0, moved.Y)
	seg := moved.Shape.(*SeatingRow).Segments[0]
	assert.Equal(t, Segment{StartX: 5, StartY: -5, EndX: 75, EndY: -5, SeatCount: 3, SeatSpacing: 35}, seg)
	assert.Equal(t, 0.0, row.Shape.(*SeatingRow).Segments[0].StartX, "original untouched")

	line := &Element{Shape: &Line{StartX: 1, StartY: 1, EndX: 2, EndY: 2}}
	l := line.Translated(1, 1).Shape.(*Line)
	assert.Equal(t, Line{StartX: 2, StartY: 2, EndX: 3, EndY: 3}, *l)
}

func TestElement_Bounds(t *testing.T) {
	tests := []struct {
		name string
		el   *Element
		want geometry.Rect
	}{
		{"round table", &Element{X: 100, Y: 100, Shape: &RoundTable{Radius: 50}}, geometry.Rect{X: 50, Y: 50, Width: 100, Height: 100}},
		{"rectangle table", &Element{X: 0, Y: 0, Shape: &RectangleTable{Width: 40, Height: 20}}, geometry.Rect{X: -20, Y: -10, Width: 40, Height: 20}},
		{"line", &Element{Shape: &Line{StartX: 10, StartY: 0, EndX: 0, EndY: 5}}, geometry.Rect{Width: 10, Height: 5}},
		{"simple row", &Element{X: 0, Y: 0, Shape: &SeatingRow{EndX: 70, EndY: 0}}, geometry.Rect{Width: 70}},
		{"text", &Element{X: 1, Y: 2, Shape: &Text{Width: 10, Height: 5}}, geometry.Rect{X: 1, Y: 2, Width: 10, Height: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.el.Bounds()
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElement_SeatCapacity(t *testing.T) {
	assert.Equal(t, 8, (&Element{Shape: &RoundTable{Seats: 8}}).SeatCapacity())
	assert.Equal(t, 6, (&Element{Shape: &RectangleTable{Up: 2, Down: 2, Left: 1, Right: 1}}).SeatCapacity())
	assert.Equal(t, 5, (&Element{Shape: &SeatingRow{SeatCount: 5}}).SeatCapacity())
	segmented := &Element{Shape: &SeatingRow{Segments: []Segment{{SeatCount: 3}, {SeatCount: 4}}}}
	assert.Equal(t, 6, segmented.SeatCapacity(), "shared chair counted once")
	assert.Equal(t, 0, (&Element{Shape: &Line{}}).SeatCapacity())
}

func TestApplyDefaults(t *testing.T) {
	table := &Element{Shape: &RoundTable{ShowChairLabels: Bool(false)}}
	ApplyDefaults(table)
	rt := table.Shape.(*RoundTable)
	require.NotNil(t, rt.ShowLabel)
	assert.True(t, *rt.ShowLabel)
	assert.False(t, *rt.ShowChairLabels, "explicit value kept")

	line := &Element{Shape: &Line{}}
	ApplyDefaults(line)
	assert.Equal(t, DefaultLineThickness, line.Shape.(*Line).Thickness)
	assert.Equal(t, DefaultLineColor, line.Shape.(*Line).Color)

	poly := &Element{Shape: &Polygon{}}
	ApplyDefaults(poly)
	assert.NotNil(t, poly.Shape.(*Polygon).Points)
	assert.Equal(t, DefaultPolygonFill, poly.Shape.(*Polygon).FillColor)
}

func TestElement_JSON(t *testing.T) {
	src := &Element{ID: "t1", X: 5, Y: 6, Rotation: 45, Label: "VIP", Shape: &RoundTable{Radius: 50, Seats: 8, ShowLabel: Bool(true)}}

	data, err := json.Marshal(src)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"roundTable"`)

	var back Element
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, src, &back)

	err = json.Unmarshal([]byte(`{"id":"x","type":"bezier"}`), &back)
	assert.ErrorIs(t, err, ErrUnknownElementType)
}

func TestApplyPatch(t *testing.T) {
	src := &Element{ID: "t1", X: 5, Shape: &RoundTable{Radius: 50, Seats: 8}}

	got, err := ApplyPatch(src, map[string]json.RawMessage{
		"seats": json.RawMessage(`10`),
		"label": json.RawMessage(`"A"`),
		"id":    json.RawMessage(`"hijack"`),
		"type":  json.RawMessage(`"line"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, TypeRoundTable, got.Type())
	assert.Equal(t, 10, got.Shape.(*RoundTable).Seats)
	assert.Equal(t, "A", got.Label)
	assert.Equal(t, 5.0, got.X)
	assert.Equal(t, 8, src.Shape.(*RoundTable).Seats, "source untouched")

	_, err = ApplyPatch(src, map[string]json.RawMessage{"seats": json.RawMessage(`"many"`)})
	assert.Error(t, err)
}

func TestChairPatch_Apply(t *testing.T) {
	c := Chair{ID: "c", Price: 25, ReservationStatus: StatusFree}
	price := -1.0
	status := StatusPreReserved
	label := "A1"
	got := ChairPatch{Price: &price, ReservationStatus: &status, Label: &label}.Apply(c)

	assert.Equal(t, 25.0, got.Price, "negative price ignored")
	assert.Equal(t, StatusFree, got.ReservationStatus, "pre-reserved is never stored")
	assert.Equal(t, "A1", got.Label)
}
