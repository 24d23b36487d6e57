package compute

import (
	"math"

	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/sim"
)

// TailCorrections returns the long-range energy and pressure corrections
// for the part of the potential cut off beyond each pair's cutoff:
//
//	E_tail = 2π/V Σ_a Σ_b N_a N_b I_E(a, b)
//	P_tail = 2π/(3V²) Σ_a Σ_b N_a N_b I_P(a, b)
//
// Families without a tail return zero integrals. An open box returns zero.
func TailCorrections[E pair.Traits, P any, PE pair.Ptr[E, P]](sys *sim.System, table *params.Table[P]) (energy, pressure float64) {
	volume := sys.Box.Volume()
	if volume <= 0 {
		return 0, 0
	}

	table.RLock()
	defer table.RUnlock()

	nt := table.NumTypes()
	counts := sys.TypeCounts(nt)

	var sumE, sumP float64
	for a := 0; a < nt; a++ {
		for b := 0; b < nt; b++ {
			ta, tb := uint32(a), uint32(b)
			var e E
			pe := PE(&e)
			pe.Init(pair.Geometry{Types: [2]uint32{ta, tb}, RCutSq: table.RCutSq(ta, tb)}, table.Get(ta, tb))
			w := float64(counts[a]) * float64(counts[b])
			sumE += w * pe.EnergyLRCIntegral()
			sumP += w * pe.PressureLRCIntegral()
		}
	}

	energy = 2 * math.Pi / volume * sumE
	pressure = 2 * math.Pi / (3 * volume * volume) * sumP
	return energy, pressure
}
