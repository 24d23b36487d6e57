package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/sim"
)

func TestSummarize(t *testing.T) {
	acc := sim.NewAccumulator(2)
	dx := dynamo.Vec3{X: 3, Y: 4}
	acc.AddPair(0, dx, 2, -6)
	acc.AddPair(1, dx.Scale(-1), 2, -6)

	s := Summarize(acc, 10, -1, 0.5)
	if s.TotalEnergy != -6 || s.EnergyPerPart != -3 {
		t.Errorf("energy = %v (%v per particle)", s.TotalEnergy, s.EnergyPerPart)
	}
	if math.Abs(s.MaxForce-10) > 1e-12 {
		t.Errorf("max force = %v, want 10", s.MaxForce)
	}
	if s.NetForce != 0 {
		t.Errorf("net force = %v, want 0", s.NetForce)
	}
	// trace of the virial is f r^2 = 50, over 3V = 30
	if math.Abs(s.Pressure-(50.0/30+0.5)) > 1e-12 {
		t.Errorf("pressure = %v", s.Pressure)
	}
	if s.CorrectedTotal != -7 {
		t.Errorf("corrected energy = %v, want -7", s.CorrectedTotal)
	}
}

func TestRelativeDifference(t *testing.T) {
	a := sim.NewAccumulator(2)
	b := sim.NewAccumulator(2)
	a.Force[0] = dynamo.Vec3{X: 100}
	b.Force[0] = dynamo.Vec3{X: 100.001}

	if d := RelativeDifference(a, b); math.Abs(d-1e-5) > 1e-9 {
		t.Errorf("difference = %v, want 1e-5", d)
	}
	if d := RelativeDifference(a, sim.NewAccumulator(3)); !math.IsInf(d, 1) {
		t.Errorf("mismatched lengths: got %v", d)
	}
}

func TestRecordersDoNotPanic(t *testing.T) {
	RecordCompute("morse", "cpu", 10, 2, 0)
	RecordError("morse", "canceled")
	RecordStaging("table", 128, 3)
	RecordUnmanaged()
}
