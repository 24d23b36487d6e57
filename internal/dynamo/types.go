package dynamo

import (
	"fmt"
	"math"
)

// Vec3 is a position or displacement in three dimensions.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) NormSq() float64      { return v.Dot(v) }

func (v Vec3) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Box is an orthorhombic simulation box centered on the origin. A zero
// length along an axis disables periodicity on that axis.
type Box struct {
	Lx, Ly, Lz float64
}

func NewCubicBox(l float64) Box { return Box{Lx: l, Ly: l, Lz: l} }

func (b Box) Volume() float64 { return b.Lx * b.Ly * b.Lz }

// MinImage wraps a displacement into the nearest periodic image.
func (b Box) MinImage(d Vec3) Vec3 {
	return Vec3{wrap(d.X, b.Lx), wrap(d.Y, b.Ly), wrap(d.Z, b.Lz)}
}

// Wrap maps a position back into [-L/2, L/2) on every periodic axis.
func (b Box) Wrap(p Vec3) Vec3 {
	return Vec3{wrap(p.X, b.Lx), wrap(p.Y, b.Ly), wrap(p.Z, b.Lz)}
}

func (b Box) String() string {
	return fmt.Sprintf("box(%g x %g x %g)", b.Lx, b.Ly, b.Lz)
}

func wrap(x, l float64) float64 {
	if l <= 0 {
		return x
	}
	return x - l*math.Round(x/l)
}
