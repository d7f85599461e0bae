// Package geometry provides the 2D primitives shared by the layout engine:
// points, axis-aligned rectangles, distances, centroids and bounds.
// Everything here is a pure function over value types.
package geometry

import "math"

// Point is a 2D point or vector in world or screen space.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point              { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point              { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point          { return Point{p.X * s, p.Y * s} }
func (p Point) Length() float64                { return math.Hypot(p.X, p.Y) }
func (p Point) Equal(q Point) bool             { return p.X == q.X && p.Y == q.Y }
func (p Point) Translate(dx, dy float64) Point { return Point{p.X + dx, p.Y + dy} }

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Normalize returns the unit vector of v, or the zero vector when v has no length.
func Normalize(v Point) Point {
	l := v.Length()
	if l == 0 {
		return Point{}
	}
	return Point{v.X / l, v.Y / l}
}

// Degrees returns atan2(dy, dx) in degrees.
func Degrees(dx, dy float64) float64 {
	return math.Atan2(dy, dx) * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Polar returns the offset of a point at angle (degrees) and distance from the origin.
func Polar(angleDeg, distance float64) Point {
	rad := Radians(angleDeg)
	return Point{math.Cos(rad) * distance, math.Sin(rad) * distance}
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Centroid returns the arithmetic mean of pts. ok is false for an empty slice.
func Centroid(pts []Point) (Point, bool) {
	if len(pts) == 0 {
		return Point{}, false
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{sx / n, sy / n}, true
}

// TranslateAll returns a new slice with every point moved by (dx, dy).
func TranslateAll(pts []Point, dx, dy float64) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = p.Translate(dx, dy)
	}
	return out
}

// Rect is an axis-aligned rectangle defined by its min corner and size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromCorners builds a normalized rectangle from two opposite corners.
func RectFromCorners(a, b Point) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// RectAround returns the rectangle of size w x h centered on c.
func RectAround(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inflate grows the rect by pad on every side.
func (r Rect) Inflate(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// Bounds returns the bounding rectangle of pts. ok is false for an empty slice.
func Bounds(pts []Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
