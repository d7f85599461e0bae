package tools

import (
	"fmt"
	"testing"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*Manager, *[]*models.Element) {
	t.Helper()
	var committed []*models.Element
	n := 0
	opts := DefaultOptions()
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
	return NewManager(opts, func(e *models.Element) { committed = append(committed, e) }), &committed
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("segmentedSeatingRow")
	require.NoError(t, err)
	assert.Equal(t, SegmentedSeatingRow, tool)

	tool, err = ParseTool("")
	require.NoError(t, err)
	assert.Equal(t, None, tool)

	_, err = ParseTool("bezier")
	assert.Error(t, err)
}

func TestTables_CommitOnOneClick(t *testing.T) {
	m, committed := newManager(t)
	assert.False(t, m.PointerDown(1, 1), "no tool, click not consumed")

	m.Activate(RoundTable)
	assert.True(t, m.PointerDown(100, 200))
	require.Len(t, *committed, 1)
	el := (*committed)[0]
	assert.Equal(t, "el-1", el.ID)
	assert.Equal(t, geometry.Pt(100, 200), geometry.Pt(el.X, el.Y))
	assert.Equal(t, 8, el.Shape.(*models.RoundTable).Seats)
	assert.Equal(t, None, m.Active(), "tools reset after commit")

	m.Activate(RectangleTable)
	m.PointerDown(0, 0)
	require.Len(t, *committed, 2)
	assert.Equal(t, 8, (*committed)[1].SeatCapacity())
}

func TestSeatingRow(t *testing.T) {
	m, committed := newManager(t)
	m.Activate(SeatingRow)
	m.PointerDown(0, 0)
	m.PointerMove(100, 0)

	preview := m.Preview()
	require.NotNil(t, preview)
	assert.Empty(t, preview.ID)
	assert.Equal(t, 3, preview.Shape.(*models.SeatingRow).SeatCount)

	m.PointerDown(100, 0)
	require.Len(t, *committed, 1)
	row := (*committed)[0].Shape.(*models.SeatingRow)
	assert.Equal(t, "el-1", (*committed)[0].ID, "preview does not consume ids")
	assert.Equal(t, 3, row.SeatCount)
	assert.InDelta(t, 70, row.EndX, 1e-9)
	assert.Equal(t, None, m.Active())
}

func TestSeatingRow_MinimumOneSeat(t *testing.T) {
	m, committed := newManager(t)
	m.Activate(SeatingRow)
	m.PointerDown(5, 5)
	m.PointerDown(5, 5)
	require.Len(t, *committed, 1)
	assert.Equal(t, 1, (*committed)[0].Shape.(*models.SeatingRow).SeatCount)
}

func TestSegmentedRow_Chaining(t *testing.T) {
	m, committed := newManager(t)
	m.Activate(SegmentedSeatingRow)

	m.PointerDown(0, 0)
	m.PointerMove(100, 0)
	m.PointerDown(100, 0)
	m.PointerMove(70, 100)
	m.PointerDown(70, 100)
	require.Len(t, m.Segments(), 2)

	// the extra press of a double-click is too short to commit a segment
	m.PointerDown(70, 100)
	assert.Len(t, m.Segments(), 2)
	require.True(t, m.DoubleClick())

	require.Len(t, *committed, 1)
	el := (*committed)[0]
	row := el.Shape.(*models.SeatingRow)
	require.Len(t, row.Segments, 2)
	assert.Equal(t, "el-1", el.ID)
	assert.Equal(t, "el-1-seg-1", row.Segments[1].ID)

	want := segment.EndPosition(row.Segments[0])
	assert.Equal(t, want, row.Segments[1].Start(), "chain continuity")
	assert.Equal(t, 2, row.TotalSegments)
	assert.Equal(t, 3+3, row.TotalSeats)
	assert.Equal(t, 5, el.SeatCapacity())
}

func TestSegmentedRow_Escape(t *testing.T) {
	t.Run("with segments finalizes", func(t *testing.T) {
		m, committed := newManager(t)
		m.Activate(SegmentedSeatingRow)
		m.PointerDown(0, 0)
		m.PointerDown(100, 0)
		assert.True(t, m.Escape())
		require.Len(t, *committed, 1)
		assert.Len(t, (*committed)[0].Shape.(*models.SeatingRow).Segments, 1)
	})

	t.Run("without segments cancels", func(t *testing.T) {
		m, committed := newManager(t)
		m.Activate(SegmentedSeatingRow)
		m.PointerDown(0, 0)
		assert.True(t, m.Escape())
		assert.Empty(t, *committed)
		assert.Equal(t, None, m.Active())
		assert.False(t, m.Escape())
	})
}

func TestLine(t *testing.T) {
	m, committed := newManager(t)
	m.Activate(Line)
	m.PointerDown(10, 20)
	assert.True(t, m.InProgress())
	m.PointerDown(30, 40)

	require.Len(t, *committed, 1)
	l := (*committed)[0].Shape.(*models.Line)
	assert.Equal(t, models.Line{StartX: 10, StartY: 20, EndX: 30, EndY: 40}, *l)
}

func TestPolygon(t *testing.T) {
	m, committed := newManager(t)
	m.Activate(Polygon)

	m.PointerDown(0, 0)
	m.PointerDown(5, 5) // within snap radius but fewer than 3 points
	m.PointerDown(100, 0)
	m.PointerDown(100, 100)
	assert.Empty(t, *committed)

	m.PointerDown(3, 4)
	require.Len(t, *committed, 1)
	p := (*committed)[0].Shape.(*models.Polygon)
	assert.True(t, p.Closed)
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 100, Y: 0}, {X: 100, Y: 100}}, p.Points,
		"closing click adds no point")
}

func TestPolygon_EscapeCancels(t *testing.T) {
	m, committed := newManager(t)
	m.Activate(Polygon)
	m.PointerDown(0, 0)
	m.PointerDown(50, 0)
	m.Escape()
	assert.Empty(t, *committed)
	assert.Nil(t, m.Preview())
}
