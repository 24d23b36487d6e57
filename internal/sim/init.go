package sim

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/pairsim/internal/dynamo"
)

const (
	LayoutLattice = "lattice"
	LayoutRandom  = "random"
)

// Setup describes a generated initial configuration. Types are assigned
// round robin; charges and diameters are given per type.
type Setup struct {
	N              int
	Box            dynamo.Box
	Layout         string
	NumTypes       int
	Charges        []float64
	Diameters      []float64
	Polydispersity float64 // relative half-width of the diameter spread
	Jitter         float64 // lattice displacement as a fraction of the spacing
	Seed           int64
}

func Build(s Setup) (*System, error) {
	if s.N <= 0 {
		return nil, fmt.Errorf("particle count must be positive, got %d", s.N)
	}
	if s.NumTypes <= 0 {
		return nil, fmt.Errorf("type count must be positive, got %d", s.NumTypes)
	}
	if s.Box.Volume() <= 0 {
		return nil, fmt.Errorf("box %v has no volume", s.Box)
	}

	rng := rand.New(rand.NewSource(s.Seed))

	var pos []dynamo.Vec3
	switch s.Layout {
	case LayoutLattice, "":
		pos = CubicLattice(s.N, s.Box)
		if s.Jitter > 0 {
			m := latticeSide(s.N)
			for i := range pos {
				pos[i] = s.Box.Wrap(pos[i].Add(dynamo.Vec3{
					X: s.Jitter * s.Box.Lx / float64(m) * (rng.Float64() - 0.5),
					Y: s.Jitter * s.Box.Ly / float64(m) * (rng.Float64() - 0.5),
					Z: s.Jitter * s.Box.Lz / float64(m) * (rng.Float64() - 0.5),
				}))
			}
		}
	case LayoutRandom:
		pos = RandomPositions(s.N, s.Box, rng)
	default:
		return nil, fmt.Errorf("unknown layout: %s", s.Layout)
	}

	sys := &System{
		Positions: pos,
		Types:     make([]uint32, s.N),
		Tag:       make([]uint32, s.N),
		Box:       s.Box,
	}
	for i := range sys.Types {
		sys.Types[i] = uint32(i % s.NumTypes)
		sys.Tag[i] = uint32(i)
	}

	if len(s.Charges) > 0 {
		sys.Charge = make([]float64, s.N)
		for i, t := range sys.Types {
			sys.Charge[i] = s.Charges[int(t)%len(s.Charges)]
		}
	}

	if len(s.Diameters) > 0 || s.Polydispersity != 0 {
		sys.Diameter = make([]float64, s.N)
		for i, t := range sys.Types {
			d := 1.0
			if len(s.Diameters) > 0 {
				d = s.Diameters[int(t)%len(s.Diameters)]
			}
			if s.Polydispersity != 0 {
				d *= 1 + s.Polydispersity*(2*rng.Float64()-1)
			}
			sys.Diameter[i] = d
		}
	}

	return sys, nil
}

// CubicLattice places n particles on the first n sites of a simple cubic
// lattice filling the box.
func CubicLattice(n int, box dynamo.Box) []dynamo.Vec3 {
	m := latticeSide(n)
	pos := make([]dynamo.Vec3, 0, n)
	ax, ay, az := box.Lx/float64(m), box.Ly/float64(m), box.Lz/float64(m)
	for i := 0; i < m && len(pos) < n; i++ {
		for j := 0; j < m && len(pos) < n; j++ {
			for k := 0; k < m && len(pos) < n; k++ {
				pos = append(pos, dynamo.Vec3{
					X: (float64(i)+0.5)*ax - box.Lx/2,
					Y: (float64(j)+0.5)*ay - box.Ly/2,
					Z: (float64(k)+0.5)*az - box.Lz/2,
				})
			}
		}
	}
	return pos
}

func RandomPositions(n int, box dynamo.Box, rng *rand.Rand) []dynamo.Vec3 {
	pos := make([]dynamo.Vec3, n)
	for i := range pos {
		pos[i] = dynamo.Vec3{
			X: (rng.Float64() - 0.5) * box.Lx,
			Y: (rng.Float64() - 0.5) * box.Ly,
			Z: (rng.Float64() - 0.5) * box.Lz,
		}
	}
	return pos
}

func latticeSide(n int) int {
	m := 1
	for m*m*m < n {
		m++
	}
	return m
}
