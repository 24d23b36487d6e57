package sim

import (
	"fmt"

	"github.com/san-kum/pairsim/internal/dynamo"
)

// System is the particle data a force computation reads. Optional
// per-particle arrays may be nil when no family needs them.
type System struct {
	Positions []dynamo.Vec3
	Types     []uint32
	Charge    []float64
	Diameter  []float64
	Tag       []uint32
	Box       dynamo.Box
	Timestep  uint64
}

func (s *System) N() int { return len(s.Positions) }

// Validate checks array lengths and type ids against the number of
// particle types.
func (s *System) Validate(numTypes int) error {
	n := s.N()
	if len(s.Types) != n {
		return fmt.Errorf("types: got %d entries for %d particles", len(s.Types), n)
	}
	for name, l := range map[string]int{"charge": len(s.Charge), "diameter": len(s.Diameter), "tag": len(s.Tag)} {
		if l != 0 && l != n {
			return fmt.Errorf("%s: got %d entries for %d particles", name, l, n)
		}
	}
	for i, t := range s.Types {
		if int(t) >= numTypes {
			return fmt.Errorf("particle %d: %w: id %d", i, dynamo.ErrUnknownType, t)
		}
	}
	for i, p := range s.Positions {
		if !p.IsValid() {
			return fmt.Errorf("particle %d: invalid position %v", i, p)
		}
	}
	return nil
}

// ChargeOf returns the charge of particle i, zero when charges are absent.
func (s *System) ChargeOf(i int) float64 {
	if s.Charge == nil {
		return 0
	}
	return s.Charge[i]
}

// DiameterOf returns the diameter of particle i, one when diameters are absent.
func (s *System) DiameterOf(i int) float64 {
	if s.Diameter == nil {
		return 1
	}
	return s.Diameter[i]
}

// TagOf returns the tag of particle i, its index when tags are absent.
func (s *System) TagOf(i int) uint32 {
	if s.Tag == nil {
		return uint32(i)
	}
	return s.Tag[i]
}

// TypeCounts returns the number of particles of each type.
func (s *System) TypeCounts(numTypes int) []int {
	counts := make([]int, numTypes)
	for _, t := range s.Types {
		if int(t) < numTypes {
			counts[t]++
		}
	}
	return counts
}

// Virial component order.
const (
	XX = iota
	XY
	XZ
	YY
	YZ
	ZZ
)

// Accumulator holds the per-particle outputs of one force computation.
type Accumulator struct {
	Force  []dynamo.Vec3
	Energy []float64
	Virial [][6]float64
}

func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		Force:  make([]dynamo.Vec3, n),
		Energy: make([]float64, n),
		Virial: make([][6]float64, n),
	}
}

func (a *Accumulator) Len() int { return len(a.Force) }

func (a *Accumulator) Reset() {
	for i := range a.Force {
		a.Force[i] = dynamo.Vec3{}
		a.Energy[i] = 0
		a.Virial[i] = [6]float64{}
	}
}

// AddPair adds a pair contribution to particle i. dx points from the
// partner to i. Energy and virial are split evenly between the two
// particles of a pair.
func (a *Accumulator) AddPair(i int, dx dynamo.Vec3, forceDivR, energy float64) {
	a.Force[i] = a.Force[i].Add(dx.Scale(forceDivR))
	a.Energy[i] += 0.5 * energy
	f := 0.5 * forceDivR
	v := &a.Virial[i]
	v[XX] += f * dx.X * dx.X
	v[XY] += f * dx.X * dx.Y
	v[XZ] += f * dx.X * dx.Z
	v[YY] += f * dx.Y * dx.Y
	v[YZ] += f * dx.Y * dx.Z
	v[ZZ] += f * dx.Z * dx.Z
}

// Merge adds other into a element-wise.
func (a *Accumulator) Merge(other *Accumulator) {
	for i := range a.Force {
		a.Force[i] = a.Force[i].Add(other.Force[i])
		a.Energy[i] += other.Energy[i]
		for k := 0; k < 6; k++ {
			a.Virial[i][k] += other.Virial[i][k]
		}
	}
}

func (a *Accumulator) TotalEnergy() float64 {
	sum := 0.0
	for _, e := range a.Energy {
		sum += e
	}
	return sum
}

// NetForce is the sum of all forces. It vanishes for pair forces up to
// rounding.
func (a *Accumulator) NetForce() dynamo.Vec3 {
	var sum dynamo.Vec3
	for _, f := range a.Force {
		sum = sum.Add(f)
	}
	return sum
}

func (a *Accumulator) TotalVirial() [6]float64 {
	var sum [6]float64
	for _, v := range a.Virial {
		for k := range sum {
			sum[k] += v[k]
		}
	}
	return sum
}

// Pressure returns the configurational part of the pressure,
// the virial trace over 3V.
func (a *Accumulator) Pressure(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	v := a.TotalVirial()
	return (v[XX] + v[YY] + v[ZZ]) / (3 * volume)
}
