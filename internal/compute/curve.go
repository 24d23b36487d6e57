package compute

import (
	"math"

	"github.com/san-kum/pairsim/internal/pair"
)

// Sample is one point of a pair curve. Force is the radial force, positive
// when repulsive.
type Sample struct {
	R      float64 `json:"r"`
	Energy float64 `json:"energy"`
	Force  float64 `json:"force"`
	OK     bool    `json:"ok"`
}

// PairAttrs are the optional per-particle attributes of the two particles
// of a sampled pair.
type PairAttrs struct {
	Charge   [2]float64
	Diameter [2]float64
}

// Curve samples V(r) and F(r) for one parameter set on n evenly spaced
// points in [rmin, rcut).
func Curve[E pair.Traits, P any, PE pair.Ptr[E, P]](p *P, rmin, rcut float64, n int, shift bool, attrs PairAttrs) []Sample {
	if n < 1 || rcut <= rmin {
		return nil
	}
	caps := pair.CapabilitiesOf[E]()
	rcutsq := rcut * rcut
	dr := (rcut - rmin) / float64(n)

	out := make([]Sample, n)
	for i := range out {
		r := rmin + float64(i)*dr
		var e E
		pe := PE(&e)
		pe.Init(pair.Geometry{
			RSq:     r * r,
			Contact: 0.5 * (attrs.Diameter[0] + attrs.Diameter[1]),
			RCutSq:  rcutsq,
		}, p)
		if caps.Charge {
			pe.SetCharge(attrs.Charge[0], attrs.Charge[1])
		}
		if caps.Diameter {
			pe.SetDiameter(attrs.Diameter[0], attrs.Diameter[1])
		}
		f, u, ok := pe.Eval(shift)
		out[i] = Sample{R: r, OK: ok}
		if ok && !math.IsNaN(u) {
			out[i].Energy = u
			out[i].Force = f * r
		}
	}
	return out
}
