package chairs

import (
	"fmt"
	"math"
	"strconv"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
	"github.com/seat-planner/backend/internal/segment"
)

// ChairOffset is the gap between a table edge and its chairs.
const ChairOffset = 20.0

// ChairID returns the id of the index-th chair of a table or simple row.
// Indices are global to the element, across all sides.
func ChairID(tableID string, index int) string {
	return fmt.Sprintf("%s-chair-%d", tableID, index)
}

// SegmentChairID returns the id of chair n of segment k of a segmented row.
func SegmentChairID(rowID string, k, n int) string {
	return fmt.Sprintf("%s-seg%d-chair-%d", rowID, k, n)
}

func newChair(id, tableID, label string, price float64, pos models.ChairPosition) models.Chair {
	return models.Chair{
		ID:                id,
		TableID:           tableID,
		Label:             label,
		Price:             price,
		Position:          pos,
		ReservationStatus: models.StatusFree,
	}
}

// RoundTableChairs places seatCount chairs evenly by angle, starting at 0°,
// radius+ChairOffset from the center, labeled 1..seatCount.
func RoundTableChairs(tableID string, seatCount int, radius, price float64) []models.Chair {
	if seatCount <= 0 {
		return nil
	}
	step := 360.0 / float64(seatCount)
	out := make([]models.Chair, 0, seatCount)
	for i := 0; i < seatCount; i++ {
		out = append(out, newChair(ChairID(tableID, i), tableID, strconv.Itoa(i+1), price,
			models.ChairPosition{Angle: float64(i) * step, Distance: radius + ChairOffset}))
	}
	return out
}

// RectangleTableChairs places chairs side by side along each edge in the
// order up, down, left, right. Positions are polar offsets from the center.
func RectangleTableChairs(tableID string, t *models.RectangleTable, price float64) []models.Chair {
	var out []models.Chair
	hw, hh := t.Width/2, t.Height/2

	side := func(count int, at func(frac float64) geometry.Point) {
		for j := 0; j < count; j++ {
			p := at((float64(j) + 0.5) / float64(count))
			idx := len(out)
			out = append(out, newChair(ChairID(tableID, idx), tableID, strconv.Itoa(idx+1), price,
				models.ChairPosition{Angle: geometry.Degrees(p.X, p.Y), Distance: math.Hypot(p.X, p.Y)}))
		}
	}
	side(t.Up, func(f float64) geometry.Point { return geometry.Pt(-hw+f*t.Width, -hh-ChairOffset) })
	side(t.Down, func(f float64) geometry.Point { return geometry.Pt(-hw+f*t.Width, hh+ChairOffset) })
	side(t.Left, func(f float64) geometry.Point { return geometry.Pt(-hw-ChairOffset, -hh+f*t.Height) })
	side(t.Right, func(f float64) geometry.Point { return geometry.Pt(hw+ChairOffset, -hh+f*t.Height) })
	return out
}

// RowChairs creates the chairs of a simple row; rows carry no polar offset.
func RowChairs(rowID string, seatCount int, price float64) []models.Chair {
	out := make([]models.Chair, 0, max(seatCount, 0))
	for i := 0; i < seatCount; i++ {
		out = append(out, newChair(ChairID(rowID, i), rowID, strconv.Itoa(i+1), price, models.ChairPosition{}))
	}
	return out
}

// SegmentedRowChairs creates one chair per seat slot of the row. A segment's
// first slot after segment 0 is the previous segment's last chair and gets no
// record of its own.
func SegmentedRowChairs(rowID string, segs []models.Segment, price float64) []models.Chair {
	var out []models.Chair
	for _, p := range segment.Placements(segs) {
		if p.Shared {
			continue
		}
		out = append(out, newChair(SegmentChairID(rowID, p.SegmentIndex, p.LocalIndex), rowID,
			strconv.Itoa(p.Label), price, models.ChairPosition{}))
	}
	return out
}

// ChairsFor generates the full chair set of el. Elements without seats get none.
func ChairsFor(el *models.Element, price float64) []models.Chair {
	switch s := el.Shape.(type) {
	case *models.RoundTable:
		return RoundTableChairs(el.ID, s.Seats, s.Radius, price)
	case *models.RectangleTable:
		return RectangleTableChairs(el.ID, s, price)
	case *models.SeatingRow:
		if s.IsSegmented() {
			return SegmentedRowChairs(el.ID, s.Segments, price)
		}
		return RowChairs(el.ID, s.SeatCount, price)
	default:
		return nil
	}
}
