package compute

import (
	"math"
	"sync/atomic"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/sim"
)

// accumulator slots per particle: force xyz, energy, six virial components
const atomicStride = 10

// atomicAccumulator is the shared output of the group backend. Values are
// stored as float64 bits and updated with compare-and-swap.
type atomicAccumulator struct {
	bits []uint64
}

func newAtomicAccumulator(n int) *atomicAccumulator {
	return &atomicAccumulator{bits: make([]uint64, n*atomicStride)}
}

func (a *atomicAccumulator) add(slot int, v float64) {
	if v == 0 {
		return
	}
	p := &a.bits[slot]
	for {
		old := atomic.LoadUint64(p)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(p, old, next) {
			return
		}
	}
}

func (a *atomicAccumulator) addPair(i int, dx dynamo.Vec3, forceDivR, energy float64) {
	b := i * atomicStride
	a.add(b, forceDivR*dx.X)
	a.add(b+1, forceDivR*dx.Y)
	a.add(b+2, forceDivR*dx.Z)
	a.add(b+3, 0.5*energy)
	f := 0.5 * forceDivR
	a.add(b+4+sim.XX, f*dx.X*dx.X)
	a.add(b+4+sim.XY, f*dx.X*dx.Y)
	a.add(b+4+sim.XZ, f*dx.X*dx.Z)
	a.add(b+4+sim.YY, f*dx.Y*dx.Y)
	a.add(b+4+sim.YZ, f*dx.Y*dx.Z)
	a.add(b+4+sim.ZZ, f*dx.Z*dx.Z)
}

// result copies the totals out. Callers must have joined all writers.
func (a *atomicAccumulator) result() *sim.Accumulator {
	n := len(a.bits) / atomicStride
	acc := sim.NewAccumulator(n)
	val := func(s int) float64 { return math.Float64frombits(a.bits[s]) }
	for i := 0; i < n; i++ {
		b := i * atomicStride
		acc.Force[i] = dynamo.Vec3{X: val(b), Y: val(b + 1), Z: val(b + 2)}
		acc.Energy[i] = val(b + 3)
		for c := 0; c < 6; c++ {
			acc.Virial[i][c] = val(b + 4 + c)
		}
	}
	return acc
}
