// Package geom defines the geometry model consumed by the tile mesh
// pipeline: points and ranges, 16-bit quantization, display parameters,
// features, and the Geometry contract that upstream tessellators implement.
package geom

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Point3 is a point or direction in 3D space.
type Point3 struct {
	X, Y, Z float64
}

// Add returns p + q.
func (p Point3) Add(q Point3) Point3 {
	return Point3{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns p - q.
func (p Point3) Sub(q Point3) Point3 {
	return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Scale returns p scaled by f.
func (p Point3) Scale(f float64) Point3 {
	return Point3{p.X * f, p.Y * f, p.Z * f}
}

// Cross returns the cross product p × q.
func (p Point3) Cross(q Point3) Point3 {
	return Point3{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

// Length returns the Euclidean length of p treated as a vector.
func (p Point3) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Normalized returns p scaled to unit length. The zero vector is
// returned unchanged.
func (p Point3) Normalized() Point3 {
	l := p.Length()
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}

// Point2 is a point in 2D space, used for UV parameters.
type Point2 struct {
	X, Y float64
}

// Range3 is an axis-aligned bounding box. A null range (Min > Max on
// every axis) contains nothing; extending it with a point yields the
// single-point range.
type Range3 struct {
	Min, Max Point3
}

// NullRange3 returns the empty range.
func NullRange3() Range3 {
	return Range3{
		Min: Point3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Point3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}

// IsNull reports whether the range contains no points.
func (r Range3) IsNull() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y || r.Min.Z > r.Max.Z
}

// ExtendPoint grows the range to include p.
func (r *Range3) ExtendPoint(p Point3) {
	r.Min.X = min(r.Min.X, p.X)
	r.Min.Y = min(r.Min.Y, p.Y)
	r.Min.Z = min(r.Min.Z, p.Z)
	r.Max.X = max(r.Max.X, p.X)
	r.Max.Y = max(r.Max.Y, p.Y)
	r.Max.Z = max(r.Max.Z, p.Z)
}

// ExtendRange grows the range to include another range.
func (r *Range3) ExtendRange(o Range3) {
	if o.IsNull() {
		return
	}
	r.ExtendPoint(o.Min)
	r.ExtendPoint(o.Max)
}

// Diagonal returns the extent of the range along each axis, or the zero
// vector for a null range.
func (r Range3) Diagonal() Point3 {
	if r.IsNull() {
		return Point3{}
	}
	return r.Max.Sub(r.Min)
}

// MaxDim returns the largest axis extent of the range.
func (r Range3) MaxDim() float64 {
	d := r.Diagonal()
	return max(d.X, d.Y, d.Z)
}

// Clamp limits v to the inclusive interval [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
