package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/sim"
)

// RDF is a binned pair correlation function. Count holds the mean number
// of neighbors per particle in each shell.
type RDF struct {
	Width float64
	R     []float64
	G     []float64
	Count []float64
}

// RadialDistribution bins all minimum-image pair distances below rmax.
// rmax may not exceed half the shortest box edge.
func RadialDistribution(sys *sim.System, rmax float64, bins int) (*RDF, error) {
	n := sys.N()
	if n < 2 {
		return nil, fmt.Errorf("radial distribution needs at least 2 particles, got %d", n)
	}
	if bins < 1 || rmax <= 0 {
		return nil, fmt.Errorf("invalid binning: rmax=%g bins=%d", rmax, bins)
	}
	half := 0.5 * math.Min(sys.Box.Lx, math.Min(sys.Box.Ly, sys.Box.Lz))
	if rmax > half {
		return nil, fmt.Errorf("rmax %g exceeds half the box (%g)", rmax, half)
	}

	width := rmax / float64(bins)
	rmaxSq := rmax * rmax
	hists := make([][]float64, dynamo.Chunks(n, 64))
	for i := range hists {
		hists[i] = make([]float64, bins)
	}

	dynamo.ParallelFor(n, 64, func(w, start, end int) {
		h := hists[w]
		for i := start; i < end; i++ {
			pi := sys.Positions[i]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				rsq := sys.Box.MinImage(pi.Sub(sys.Positions[j])).NormSq()
				if rsq >= rmaxSq {
					continue
				}
				b := int(math.Sqrt(rsq) / width)
				if b < bins {
					h[b]++
				}
			}
		}
	})

	out := &RDF{
		Width: width,
		R:     make([]float64, bins),
		G:     make([]float64, bins),
		Count: make([]float64, bins),
	}
	rho := float64(n) / sys.Box.Volume()
	for b := 0; b < bins; b++ {
		total := 0.0
		for _, h := range hists {
			total += h[b]
		}
		lo, hi := float64(b)*width, float64(b+1)*width
		shell := 4 * math.Pi / 3 * (hi*hi*hi - lo*lo*lo)
		out.R[b] = 0.5 * (lo + hi)
		out.Count[b] = total / float64(n)
		out.G[b] = out.Count[b] / (rho * shell)
	}
	return out, nil
}

// Coordination sums the neighbor counts of all shells below r.
func (r *RDF) Coordination(rc float64) float64 {
	total := 0.0
	for b, c := range r.Count {
		if float64(b+1)*r.Width > rc {
			break
		}
		total += c
	}
	return total
}

// Peak returns the center and height of the highest bin.
func (r *RDF) Peak() (float64, float64) {
	best := 0
	for b := range r.G {
		if r.G[b] > r.G[best] {
			best = b
		}
	}
	return r.R[best], r.G[best]
}
