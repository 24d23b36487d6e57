package metrics

import (
	"math"

	"github.com/san-kum/pairsim/internal/sim"
)

// Summary condenses an accumulator into the scalar observables printed by
// the CLI and stored with a run.
type Summary struct {
	Particles      int     `json:"particles"`
	TotalEnergy    float64 `json:"total_energy"`
	EnergyPerPart  float64 `json:"energy_per_particle"`
	Pressure       float64 `json:"pressure"`
	MaxForce       float64 `json:"max_force"`
	NetForce       float64 `json:"net_force"`
	TailEnergy     float64 `json:"tail_energy"`
	TailPressure   float64 `json:"tail_pressure"`
	CorrectedTotal float64 `json:"corrected_energy"`
}

// Summarize reduces acc. volume may be zero for open boundaries, in which
// case the pressure is not defined and reported as zero.
func Summarize(acc *sim.Accumulator, volume, tailEnergy, tailPressure float64) Summary {
	s := Summary{
		Particles:    acc.Len(),
		TotalEnergy:  acc.TotalEnergy(),
		Pressure:     acc.Pressure(volume) + tailPressure,
		TailEnergy:   tailEnergy,
		TailPressure: tailPressure,
	}
	if s.Particles > 0 {
		s.EnergyPerPart = s.TotalEnergy / float64(s.Particles)
	}
	for _, f := range acc.Force {
		s.MaxForce = math.Max(s.MaxForce, math.Sqrt(f.NormSq()))
	}
	s.NetForce = math.Sqrt(acc.NetForce().NormSq())
	s.CorrectedTotal = s.TotalEnergy + tailEnergy
	return s
}

// RelativeDifference is the largest per-component force difference
// between two accumulators, relative to the largest force magnitude.
// It compares backends or worker counts.
func RelativeDifference(a, b *sim.Accumulator) float64 {
	if a.Len() != b.Len() {
		return math.Inf(1)
	}
	scale := 0.0
	diff := 0.0
	for i := range a.Force {
		scale = math.Max(scale, math.Sqrt(a.Force[i].NormSq()))
		diff = math.Max(diff, math.Sqrt(a.Force[i].Sub(b.Force[i]).NormSq()))
		scale = math.Max(scale, math.Abs(a.Energy[i]))
		diff = math.Max(diff, math.Abs(a.Energy[i]-b.Energy[i]))
	}
	if scale == 0 {
		return diff
	}
	return diff / scale
}
