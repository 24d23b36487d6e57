// Package nlist builds brute-force neighbor lists under the minimum image
// convention. It is the pair source for the force driver.
package nlist

import (
	"fmt"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/sim"
)

// Mode selects whether each pair is stored once or twice.
type Mode int

const (
	// Half stores pair (i, j) only under i < j. Accumulation must scatter
	// into j.
	Half Mode = iota
	// Full stores each pair under both particles. Accumulation writes only i.
	Full
)

func (m Mode) String() string {
	switch m {
	case Half:
		return "half"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "half", "":
		return Half, nil
	case "full":
		return Full, nil
	default:
		return Half, fmt.Errorf("unknown neighbor list mode: %s", s)
	}
}

// List is a compressed neighbor list. The neighbors of particle i are
// Neighbors[Offsets[i]:Offsets[i+1]].
type List struct {
	Mode      Mode
	RList     float64
	Offsets   []int
	Neighbors []uint32
}

// Build collects every pair closer than rcut+buffer.
func Build(sys *sim.System, rcut, buffer float64, mode Mode) (*List, error) {
	if rcut <= 0 {
		return nil, fmt.Errorf("cutoff must be positive, got %g", rcut)
	}
	if buffer < 0 {
		return nil, fmt.Errorf("buffer must not be negative, got %g", buffer)
	}
	rlist := rcut + buffer
	if err := checkBox(sys.Box, rlist); err != nil {
		return nil, err
	}

	n := sys.N()
	rlistSq := rlist * rlist
	perParticle := make([][]uint32, n)

	dynamo.ParallelFor(n, 64, func(_, start, end int) {
		for i := start; i < end; i++ {
			first := 0
			if mode == Half {
				first = i + 1
			}
			var nbrs []uint32
			for j := first; j < n; j++ {
				if j == i {
					continue
				}
				d := sys.Box.MinImage(sys.Positions[i].Sub(sys.Positions[j]))
				if d.NormSq() < rlistSq {
					nbrs = append(nbrs, uint32(j))
				}
			}
			perParticle[i] = nbrs
		}
	})

	l := &List{Mode: mode, RList: rlist, Offsets: make([]int, n+1)}
	total := 0
	for i, nbrs := range perParticle {
		l.Offsets[i] = total
		total += len(nbrs)
	}
	l.Offsets[n] = total
	l.Neighbors = make([]uint32, 0, total)
	for _, nbrs := range perParticle {
		l.Neighbors = append(l.Neighbors, nbrs...)
	}
	return l, nil
}

func (l *List) NumParticles() int { return len(l.Offsets) - 1 }

func (l *List) Of(i int) []uint32 {
	return l.Neighbors[l.Offsets[i]:l.Offsets[i+1]]
}

// NumPairs returns the number of stored entries. A full list stores each
// pair twice.
func (l *List) NumPairs() int { return len(l.Neighbors) }

// checkBox rejects periodic boxes too small for a unique minimum image.
func checkBox(box dynamo.Box, rlist float64) error {
	for _, l := range [3]float64{box.Lx, box.Ly, box.Lz} {
		if l > 0 && rlist > l/2 {
			return fmt.Errorf("interaction range %g exceeds half the box length %g", rlist, l)
		}
	}
	return nil
}
