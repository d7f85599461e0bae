package chairs

import (
	"testing"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateForTable(t *testing.T) {
	r := NewRegistry(0, nil)
	chairs := r.GenerateForTable("t1", 4, 50)

	require.Len(t, chairs, 4)
	for i, c := range chairs {
		assert.Equal(t, ChairID("t1", i), c.ID)
		assert.Equal(t, "t1", c.TableID)
		assert.InDelta(t, float64(i)*90, c.Position.Angle, 1e-9)
		assert.Equal(t, 70.0, c.Position.Distance)
		assert.Equal(t, models.DefaultChairPrice, c.Price)
		assert.Equal(t, models.StatusFree, c.ReservationStatus)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, labels(chairs))
	assert.Equal(t, 4, r.Len())

	assert.Empty(t, r.GenerateForTable("t2", 0, 50))
}

func TestRegistry_SelectIsExclusive(t *testing.T) {
	r := NewRegistry(0, nil)
	r.GenerateForTable("t1", 3, 40)

	panel := geometry.Pt(100, 200)
	require.True(t, r.Select("t1-chair-0", &panel))
	require.True(t, r.Select("t1-chair-2", nil))

	first, _ := r.Get("t1-chair-0")
	second, _ := r.Get("t1-chair-2")
	assert.False(t, first.IsSelected)
	assert.True(t, second.IsSelected)

	sel, ok := r.Selected()
	require.True(t, ok)
	assert.Equal(t, "t1-chair-2", sel.ID)

	assert.False(t, r.Select("missing", nil))
	sel, _ = r.Selected()
	assert.Equal(t, "t1-chair-2", sel.ID, "unknown id leaves selection alone")

	r.Deselect()
	_, ok = r.Selected()
	assert.False(t, ok)
	_, ok = r.PanelPosition()
	assert.False(t, ok, "deselect clears the panel position")
}

func TestRegistry_UpdateAndRemove(t *testing.T) {
	r := NewRegistry(30, nil)
	r.GenerateForTable("t1", 2, 40)

	label := "A1"
	price := -5.0
	c, ok := r.Update("t1-chair-0", models.ChairPatch{Label: &label, Price: &price})
	require.True(t, ok)
	assert.Equal(t, "A1", c.Label)
	assert.Equal(t, 30.0, c.Price, "negative price ignored")

	_, ok = r.Update("nope", models.ChairPatch{Label: &label})
	assert.False(t, ok)

	assert.True(t, r.Remove("t1-chair-0"))
	assert.False(t, r.Remove("t1-chair-0"))
	assert.Len(t, r.ForTable("t1"), 1)
}

func TestRegistry_Sync(t *testing.T) {
	r := NewRegistry(0, nil)
	el := &models.Element{ID: "t1", Shape: &models.RoundTable{Radius: 50, Seats: 6}}

	assert.True(t, r.Sync(el, false))
	assert.Len(t, r.ForTable("t1"), 6)

	label := "VIP"
	r.Update("t1-chair-3", models.ChairPatch{Label: &label})
	assert.False(t, r.Sync(el, false), "count matches, chairs kept")
	c, _ := r.Get("t1-chair-3")
	assert.Equal(t, "VIP", c.Label)

	el.Shape.(*models.RoundTable).Seats = 4
	assert.True(t, r.Sync(el, false))
	assert.Len(t, r.ForTable("t1"), 4)

	assert.True(t, r.Sync(el, true), "forced regeneration")
	c, _ = r.Get("t1-chair-3")
	assert.Equal(t, "4", c.Label)

	line := &models.Element{ID: "t1", Shape: &models.Line{}}
	assert.True(t, r.Sync(line, false), "seatless element drops its chairs")
	assert.Empty(t, r.ForTable("t1"))
}

func TestRectangleTableChairs(t *testing.T) {
	table := &models.RectangleTable{Width: 100, Height: 60, Up: 2, Down: 2, Left: 1, Right: 1}
	chairs := RectangleTableChairs("r1", table, 25)

	require.Len(t, chairs, 6)
	assert.Equal(t, "r1-chair-5", chairs[5].ID, "indices are global across sides")
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, labels(chairs))

	up := geometry.Polar(chairs[0].Position.Angle, chairs[0].Position.Distance)
	assert.InDelta(t, -25, up.X, 1e-9)
	assert.InDelta(t, -50, up.Y, 1e-9)

	right := geometry.Polar(chairs[5].Position.Angle, chairs[5].Position.Distance)
	assert.InDelta(t, 70, right.X, 1e-9)
	assert.InDelta(t, 0, right.Y, 1e-9)
}

func TestSegmentedRowChairs(t *testing.T) {
	first := segment.CreateSegment("row", 0, 0, 0, 100, 0, 35)
	start := segment.NextSegmentStart(first)
	second := segment.CreateSegment("row", 1, start.X, start.Y, start.X, start.Y+100, 35)
	el := &models.Element{ID: "row", Shape: &models.SeatingRow{Segments: []models.Segment{first, second}}}

	chairs := ChairsFor(el, 25)
	require.Len(t, chairs, el.SeatCapacity())
	assert.Equal(t, []string{
		"row-seg0-chair-0", "row-seg0-chair-1", "row-seg0-chair-2",
		"row-seg1-chair-1", "row-seg1-chair-2",
	}, chairIDs(chairs))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, labels(chairs))

	simple := &models.Element{ID: "s", Shape: &models.SeatingRow{SeatCount: 3}}
	assert.Equal(t, []string{"s-chair-0", "s-chair-1", "s-chair-2"}, chairIDs(ChairsFor(simple, 25)))
}

func labels(cs []models.Chair) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Label
	}
	return out
}

func chairIDs(cs []models.Chair) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
