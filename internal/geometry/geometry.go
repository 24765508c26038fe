// Package geometry provides the plain value types and vector arithmetic the
// simulation core is built from: points, positions, vectors, rectangles, and
// the axis-aligned road strip a dog's position is constrained to.
package geometry

import "math"

// RoadHalfWidth is the fixed half-width, in world units, of every road strip.
const RoadHalfWidth = 0.4

// Orientation distinguishes a horizontal road from a vertical one.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Point is an integer-valued 2D coordinate, used for road start points.
type Point struct {
	X int
	Y int
}

// Vector is a real-valued 2D displacement or velocity.
type Vector struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of two vectors.
func (v Vector) Add(other Vector) Vector {
	return Vector{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the component-wise difference of two vectors.
func (v Vector) Sub(other Vector) Vector {
	return Vector{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies the vector by a scalar.
func (v Vector) Scale(scalar float64) Vector {
	return Vector{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot returns the scalar dot product of two vectors.
func (v Vector) Dot(other Vector) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Length returns the Euclidean norm of the vector.
func (v Vector) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero reports whether both components are exactly zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Position is a real-valued 2D point, the mutable location of a dog.
type Position struct {
	X float64
	Y float64
}

// Add translates a position by a vector.
func (p Position) Add(v Vector) Position {
	return Position{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the displacement from other to p.
func (p Position) Sub(other Position) Vector {
	return Vector{X: p.X - other.X, Y: p.Y - other.Y}
}

// Rect is an axis-aligned rectangle, used for buildings and road strips.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Contains reports whether p lies within the rectangle, inclusive of bounds.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Clamp projects p onto the rectangle, clipping any component out of bounds.
func (r Rect) Clamp(p Position) Position {
	clamped := p
	if clamped.X < r.MinX {
		clamped.X = r.MinX
	} else if clamped.X > r.MaxX {
		clamped.X = r.MaxX
	}
	if clamped.Y < r.MinY {
		clamped.Y = r.MinY
	} else if clamped.Y > r.MaxY {
		clamped.Y = r.MaxY
	}
	return clamped
}

// RoadStrip is the Minkowski sum of a road's axis segment with a square of
// half-width RoadHalfWidth, expressed as its bounding rectangle.
type RoadStrip struct {
	Orientation Orientation
	Start       Point
	End         int
}

// Bounds computes the axis-aligned rectangle covered by the strip.
func (r RoadStrip) Bounds() Rect {
	x0, y0 := float64(r.Start.X), float64(r.Start.Y)
	switch r.Orientation {
	case Vertical:
		y1 := float64(r.End)
		lo, hi := y0, y1
		if lo > hi {
			lo, hi = hi, lo
		}
		return Rect{
			MinX: x0 - RoadHalfWidth,
			MaxX: x0 + RoadHalfWidth,
			MinY: lo - RoadHalfWidth,
			MaxY: hi + RoadHalfWidth,
		}
	default:
		x1 := float64(r.End)
		lo, hi := x0, x1
		if lo > hi {
			lo, hi = hi, lo
		}
		return Rect{
			MinX: lo - RoadHalfWidth,
			MaxX: hi + RoadHalfWidth,
			MinY: y0 - RoadHalfWidth,
			MaxY: y0 + RoadHalfWidth,
		}
	}
}

// Contains reports whether p lies within this strip's bounds.
func (r RoadStrip) Contains(p Position) bool {
	return r.Bounds().Contains(p)
}

// TimeOfImpact computes the earliest parameter t in [0,1] at which the point
// traveling along the segment start->end enters the circle of the given
// radius centered at target. ok is false when the segment never enters the
// circle.
func TimeOfImpact(start, end, target Position, radius float64) (t float64, ok bool) {
	segment := end.Sub(start)
	toTarget := target.Sub(start)

	if segment.IsZero() {
		if toTarget.Length() <= radius {
			return 0, true
		}
		return 0, false
	}

	// Solve |start + t*segment - target|^2 = radius^2 for t, a classic
	// segment/circle intersection via the quadratic formula.
	segLenSq := segment.Dot(segment)
	a := segLenSq
	b := -2 * toTarget.Dot(segment)
	c := toTarget.Dot(toTarget) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}
	sqrtDisc := math.Sqrt(discriminant)
	t0 := (-b - sqrtDisc) / (2 * a)
	t1 := (-b + sqrtDisc) / (2 * a)
	if t0 > t1 {
		t0, t1 = t1, t0
	}

	switch {
	case t0 >= 0 && t0 <= 1:
		return t0, true
	case t0 < 0 && t1 >= 0:
		// start already lies inside the circle
		return 0, true
	default:
		return 0, false
	}
}
