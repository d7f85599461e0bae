// Package segment implements the geometry of segmented seating rows: seat
// counts from pointer distance, end-chair positions, chaining between
// segments and global chair labeling. All functions are pure.
package segment

import (
	"fmt"
	"math"

	"github.com/seat-planner/backend/internal/geometry"
	"github.com/seat-planner/backend/internal/models"
)

// DefaultSpacing is the seat pitch used when a tool has no configured spacing.
const DefaultSpacing = 35.0

// ID returns the deterministic id of segment index within row rowID.
func ID(rowID string, index int) string {
	return fmt.Sprintf("%s-seg-%d", rowID, index)
}

// SeatCountFor returns how many seats fit along distance with the given spacing.
func SeatCountFor(distance, spacing float64) int {
	if spacing <= 0 || distance <= 0 || math.IsNaN(distance) {
		return 1
	}
	return max(1, int(math.Floor(distance/spacing))+1)
}

// EndPosition returns the position of the last chair of seg: (SeatCount-1)
// spacings along the start-to-end direction. The raw end point only supplies
// the direction.
func EndPosition(seg models.Segment) geometry.Point {
	start := seg.Start()
	dir := geometry.Normalize(seg.End().Sub(start))
	return start.Add(dir.Scale(float64(seg.SeatCount-1) * seg.SeatSpacing))
}

// NextSegmentStart returns where the segment following seg must start.
func NextSegmentStart(seg models.Segment) geometry.Point {
	return EndPosition(seg)
}

// CreateSegment builds segment index of row rowID from start to end. It
// panics when spacing is not positive.
func CreateSegment(rowID string, index int, startX, startY, endX, endY, spacing float64) models.Segment {
	if !(spacing > 0) {
		panic(fmt.Sprintf("segment: spacing must be positive, got %v", spacing))
	}
	dx, dy := endX-startX, endY-startY
	return models.Segment{
		ID:           ID(rowID, index),
		StartX:       startX,
		StartY:       startY,
		EndX:         endX,
		EndY:         endY,
		SeatCount:    SeatCountFor(math.Hypot(dx, dy), spacing),
		SeatSpacing:  spacing,
		Rotation:     geometry.Degrees(dx, dy),
		SegmentIndex: index,
	}
}

// UpdateEndFromPointer recomputes seat count and rotation from the live
// pointer position and snaps the end point onto the last valid seat position.
// A pointer on the start point keeps the previous rotation.
func UpdateEndFromPointer(seg models.Segment, pointerX, pointerY float64) models.Segment {
	dx, dy := pointerX-seg.StartX, pointerY-seg.StartY
	dist := math.Hypot(dx, dy)
	seg.SeatCount = SeatCountFor(dist, seg.SeatSpacing)
	if dist == 0 {
		seg.EndX, seg.EndY = seg.StartX, seg.StartY
		return seg
	}
	seg.Rotation = geometry.Degrees(dx, dy)
	reach := float64(seg.SeatCount-1) * seg.SeatSpacing
	seg.EndX = seg.StartX + dx/dist*reach
	seg.EndY = seg.StartY + dy/dist*reach
	return seg
}

// Metrics aggregates a row's segments.
type Metrics struct {
	TotalSeats    int
	TotalSegments int
	TotalLength   float64
}

// AggregateMetrics sums seat counts and lengths over segs. TotalSeats counts
// every segment's seats, shared chairs included.
func AggregateMetrics(segs []models.Segment) Metrics {
	m := Metrics{TotalSegments: len(segs)}
	for _, s := range segs {
		m.TotalSeats += s.SeatCount
		m.TotalLength += s.Length()
	}
	return m
}

// Placement is one chair slot along a segmented row.
type Placement struct {
	SegmentIndex int
	LocalIndex   int
	Label        int
	Position     geometry.Point
	// Shared marks the first chair of a segment after the first: it sits on
	// the previous segment's last chair and carries its label.
	Shared bool
}

// Placements lists every chair slot of segs in order with global labels.
// Segment 0 is labeled 1..n; each later segment continues from the previous
// total minus one so the shared vertex is not counted twice.
func Placements(segs []models.Segment) []Placement {
	var out []Placement
	offset := 0
	for k, seg := range segs {
		start := seg.Start()
		dir := geometry.Normalize(seg.End().Sub(start))
		for n := 0; n < seg.SeatCount; n++ {
			out = append(out, Placement{
				SegmentIndex: k,
				LocalIndex:   n,
				Label:        offset + n + 1,
				Position:     start.Add(dir.Scale(float64(n) * seg.SeatSpacing)),
				Shared:       k > 0 && n == 0,
			})
		}
		offset += seg.SeatCount - 1
	}
	return out
}

// Rechain rewrites segment indices, ids and start points so the chain
// invariant holds after segments were edited. The first segment's start is
// kept; each later segment keeps its direction and seat count.
func Rechain(rowID string, segs []models.Segment) []models.Segment {
	out := make([]models.Segment, len(segs))
	copy(out, segs)
	for i := range out {
		out[i].SegmentIndex = i
		out[i].ID = ID(rowID, i)
		if i == 0 {
			continue
		}
		next := NextSegmentStart(out[i-1])
		dx, dy := next.X-out[i].StartX, next.Y-out[i].StartY
		out[i] = out[i].Translated(dx, dy)
	}
	return out
}

// Normalize rechains a segmented row in place and refreshes its segment and
// seat totals. Other elements are left untouched.
func Normalize(el *models.Element) {
	row, ok := el.Shape.(*models.SeatingRow)
	if !ok || !row.IsSegmented() {
		return
	}
	row.Segments = Rechain(el.ID, row.Segments)
	m := AggregateMetrics(row.Segments)
	row.TotalSegments, row.TotalSeats = m.TotalSegments, m.TotalSeats
}
