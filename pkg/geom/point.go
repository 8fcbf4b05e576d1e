// Package geom provides the fixed-point 2D and 3D types used by the slicer.
// All coordinates are integer microns so that slicing is free of
// floating-point drift; conversions from millimetre models happen once at
// mesh load time.
package geom

import (
	"fmt"
	"math"
)

// MicronsPerMM converts millimetres to the integer unit used everywhere.
const MicronsPerMM = 1000

// MM converts a length in millimetres to microns, rounding to nearest.
func MM(v float64) int64 {
	return int64(math.Round(v * MicronsPerMM))
}

// ToMM converts microns back to millimetres.
func ToMM(v int64) float64 {
	return float64(v) / MicronsPerMM
}

// Point2 is a point or vector in the slicing plane.
type Point2 struct {
	X, Y int64
}

// Add returns p+q.
func (p Point2) Add(q Point2) Point2 { return Point2{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point2) Sub(q Point2) Point2 { return Point2{p.X - q.X, p.Y - q.Y} }

// Mul scales p by f.
func (p Point2) Mul(f int64) Point2 { return Point2{p.X * f, p.Y * f} }

// Div divides p by f, truncating toward zero.
func (p Point2) Div(f int64) Point2 { return Point2{p.X / f, p.Y / f} }

// Dot returns the dot product of p and q.
func (p Point2) Dot(q Point2) int64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the cross product of p and q.
func (p Point2) Cross(q Point2) int64 { return p.X*q.Y - p.Y*q.X }

// VSize2 returns the squared length of p.
func (p Point2) VSize2() int64 { return p.X*p.X + p.Y*p.Y }

// VSize returns the length of p, truncated to an integer.
func (p Point2) VSize() int64 {
	return int64(math.Sqrt(float64(p.VSize2())))
}

// ShorterThan reports whether the length of p is at most l. The per-axis
// test keeps the squared length from overflowing for far-apart points.
func (p Point2) ShorterThan(l int64) bool {
	if p.X > l || p.X < -l {
		return false
	}
	if p.Y > l || p.Y < -l {
		return false
	}
	return p.VSize2() <= l*l
}

// Normal returns p rescaled to length l. The zero vector is returned as is.
func (p Point2) Normal(l int64) Point2 {
	size := p.VSize()
	if size == 0 {
		return p
	}
	return p.Mul(l).Div(size)
}

func (p Point2) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Point3 is a mesh vertex position.
type Point3 struct {
	X, Y, Z int64
}

// Add returns p+q.
func (p Point3) Add(q Point3) Point3 { return Point3{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Sub returns p-q.
func (p Point3) Sub(q Point3) Point3 { return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Mul scales p by f.
func (p Point3) Mul(f int64) Point3 { return Point3{p.X * f, p.Y * f, p.Z * f} }

// Div divides p by f, truncating toward zero.
func (p Point3) Div(f int64) Point3 { return Point3{p.X / f, p.Y / f, p.Z / f} }

// Dot returns the dot product of p and q.
func (p Point3) Dot(q Point3) int64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// VSize2 returns the squared length of p.
func (p Point3) VSize2() int64 { return p.X*p.X + p.Y*p.Y + p.Z*p.Z }

// VSize returns the length of p, truncated to an integer.
func (p Point3) VSize() int64 {
	return int64(math.Sqrt(float64(p.VSize2())))
}

// ShorterThan reports whether the length of p is at most l.
func (p Point3) ShorterThan(l int64) bool {
	if p.X > l || p.X < -l || p.Y > l || p.Y < -l || p.Z > l || p.Z < -l {
		return false
	}
	return p.VSize2() <= l*l
}

// XY drops the z coordinate.
func (p Point3) XY() Point2 { return Point2{p.X, p.Y} }

func (p Point3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Min returns the componentwise minimum of p and q.
func (p Point3) Min(q Point3) Point3 {
	return Point3{min(p.X, q.X), min(p.Y, q.Y), min(p.Z, q.Z)}
}

// Max returns the componentwise maximum of p and q.
func (p Point3) Max(q Point3) Point3 {
	return Point3{max(p.X, q.X), max(p.Y, q.Y), max(p.Z, q.Z)}
}
