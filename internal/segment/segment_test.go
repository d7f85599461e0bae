package segment

import (
	"testing"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSegment(t *testing.T) {
	seg := CreateSegment("row1", 0, 0, 0, 100, 0, 35)

	assert.Equal(t, "row1-seg-0", seg.ID)
	assert.Equal(t, 3, seg.SeatCount, "floor(100/35)+1")
	assert.Equal(t, 0.0, seg.Rotation)
	assert.Equal(t, 0, seg.SegmentIndex)

	vertical := CreateSegment("row1", 1, 0, 0, 0, 10, 35)
	assert.Equal(t, 1, vertical.SeatCount, "seat count floors at 1")
	assert.InDelta(t, 90, vertical.Rotation, 1e-9)
}

func TestCreateSegment_PanicsOnBadSpacing(t *testing.T) {
	assert.Panics(t, func() { CreateSegment("r", 0, 0, 0, 10, 0, 0) })
	assert.Panics(t, func() { CreateSegment("r", 0, 0, 0, 10, 0, -5) })
}

func TestEndPosition(t *testing.T) {
	seg := CreateSegment("r", 0, 0, 0, 100, 0, 35)
	end := EndPosition(seg)
	assert.InDelta(t, 70, end.X, 1e-9, "(3-1)*35 along +x")
	assert.InDelta(t, 0, end.Y, 1e-9)
	assert.Equal(t, end, NextSegmentStart(seg))

	degenerate := models.Segment{StartX: 5, StartY: 5, EndX: 5, EndY: 5, SeatCount: 1, SeatSpacing: 35}
	assert.Equal(t, geometry.Pt(5, 5), EndPosition(degenerate))
}

func TestUpdateEndFromPointer(t *testing.T) {
	seg := CreateSegment("r", 0, 10, 10, 11, 10, 35)

	moved := UpdateEndFromPointer(seg, 10, 120)
	assert.Equal(t, 4, moved.SeatCount, "floor(110/35)+1")
	assert.InDelta(t, 90, moved.Rotation, 1e-9)
	assert.InDelta(t, 10, moved.EndX, 1e-9)
	assert.InDelta(t, 10+3*35, moved.EndY, 1e-9, "end snapped to the last seat")

	back := UpdateEndFromPointer(moved, 10, 10)
	assert.Equal(t, 1, back.SeatCount)
	assert.InDelta(t, 90, back.Rotation, 1e-9, "rotation kept on zero-length vector")
	assert.Equal(t, back.Start(), back.End())
}

func TestAggregateMetrics(t *testing.T) {
	segs := []models.Segment{
		CreateSegment("r", 0, 0, 0, 100, 0, 35),
		CreateSegment("r", 1, 70, 0, 70, 50, 25),
	}
	m := AggregateMetrics(segs)
	assert.Equal(t, 2, m.TotalSegments)
	assert.Equal(t, 3+3, m.TotalSeats)
	assert.InDelta(t, 150, m.TotalLength, 1e-9)

	assert.Equal(t, Metrics{}, AggregateMetrics(nil))
}

func TestPlacements_GlobalLabels(t *testing.T) {
	first := CreateSegment("r", 0, 0, 0, 100, 0, 35)
	start := NextSegmentStart(first)
	second := CreateSegment("r", 1, start.X, start.Y, start.X, start.Y+100, 35)

	ps := Placements([]models.Segment{first, second})
	require.Len(t, ps, 6)

	labels := make([]int, len(ps))
	for i, p := range ps {
		labels[i] = p.Label
	}
	assert.Equal(t, []int{1, 2, 3, 3, 4, 5}, labels)
	assert.True(t, ps[3].Shared)
	assert.False(t, ps[0].Shared)
	assert.InDelta(t, ps[2].Position.X, ps[3].Position.X, 1e-9, "shared chair coincides")
	assert.InDelta(t, ps[2].Position.Y, ps[3].Position.Y, 1e-9)
}

func TestChainingInvariant(t *testing.T) {
	segs := []models.Segment{CreateSegment("r", 0, 0, 0, 100, 0, 35)}
	pointers := []geometry.Point{{X: 70, Y: 90}, {X: -40, Y: 130}, {X: -40, Y: 300}}
	for i, p := range pointers {
		start := NextSegmentStart(segs[i])
		segs = append(segs, CreateSegment("r", i+1, start.X, start.Y, p.X, p.Y, 35))
	}

	for i := 1; i < len(segs); i++ {
		want := EndPosition(segs[i-1])
		assert.Equal(t, want.X, segs[i].StartX, "segment %d", i)
		assert.Equal(t, want.Y, segs[i].StartY, "segment %d", i)
	}
}

func TestRechain(t *testing.T) {
	segs := []models.Segment{
		CreateSegment("r", 0, 0, 0, 100, 0, 35),
		CreateSegment("r", 1, 70, 0, 70, 100, 35),
	}
	segs[0] = UpdateEndFromPointer(segs[0], 140, 0) // first segment grew

	out := Rechain("r", segs)
	want := EndPosition(out[0])
	assert.Equal(t, want.X, out[1].StartX)
	assert.Equal(t, want.Y, out[1].StartY)
	assert.Equal(t, out[1].SeatCount, segs[1].SeatCount)
	assert.Equal(t, "r-seg-1", out[1].ID)
	assert.Equal(t, 70.0, segs[1].StartX, "input untouched")
}
