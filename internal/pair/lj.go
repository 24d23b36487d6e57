package pair

import (
	"math"

	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/shmem"
)

// LJParams configure the 12-6 Lennard-Jones potential.
type LJParams struct {
	Epsilon float64
	Sigma   float64
}

func NewLJParams(rec params.Record, managed bool) (LJParams, error) {
	var p LJParams
	var err error
	if p.Epsilon, err = params.Scalar(rec, "lj", "epsilon"); err != nil {
		return p, err
	}
	if p.Sigma, err = params.Scalar(rec, "lj", "sigma"); err != nil {
		return p, err
	}
	return p, nil
}

func (p LJParams) Record() params.Record {
	return params.Record{"epsilon": p.Epsilon, "sigma": p.Sigma}
}

func (p *LJParams) AllocateShared(c *shmem.Cursor) {}
func (p *LJParams) LoadShared(c *shmem.Cursor)     {}

// LJ evaluates V(r) = 4ε[(σ/r)^12 − (σ/r)^6]. It is the one shipped family
// with an analytic tail beyond the cutoff.
type LJ struct {
	base
	lj1 float64 // 4εσ^12
	lj2 float64 // 4εσ^6
}

func (LJ) Name() string { return "lj" }

func (l *LJ) Init(g Geometry, p *LJParams) {
	l.bind(g)
	sigma6 := math.Pow(p.Sigma, 6)
	l.lj1 = 4 * p.Epsilon * sigma6 * sigma6
	l.lj2 = 4 * p.Epsilon * sigma6
}

func (l *LJ) Eval(shift bool) (float64, float64, bool) {
	if l.rsq >= l.rcutsq || (l.lj1 == 0 && l.lj2 == 0) {
		return 0, 0, false
	}

	r2inv := 1 / l.rsq
	r6inv := r2inv * r2inv * r2inv

	forceDivR := r2inv * r6inv * (12*l.lj1*r6inv - 6*l.lj2)
	energy := ljEnergy(l.lj1, l.lj2, r6inv)

	if shift {
		rcut2inv := 1 / l.rcutsq
		energy -= ljEnergy(l.lj1, l.lj2, rcut2inv*rcut2inv*rcut2inv)
	}
	return forceDivR, energy, true
}

// EnergyLRCIntegral returns ∫_{rc}^∞ r² V(r) dr.
func (l LJ) EnergyLRCIntegral() float64 {
	if l.rcutsq == 0 {
		return 0
	}
	rc3inv := 1 / (l.rcutsq * math.Sqrt(l.rcutsq))
	rc9inv := rc3inv * rc3inv * rc3inv
	return l.lj1/9*rc9inv - l.lj2/3*rc3inv
}

// PressureLRCIntegral returns −∫_{rc}^∞ r³ V'(r) dr.
func (l LJ) PressureLRCIntegral() float64 {
	if l.rcutsq == 0 {
		return 0
	}
	rc3inv := 1 / (l.rcutsq * math.Sqrt(l.rcutsq))
	rc9inv := rc3inv * rc3inv * rc3inv
	return l.lj1*4/3*rc9inv - 2*l.lj2*rc3inv
}

func (l LJ) ShapeSpec() (Shape, error) { return noShape(l.Name()) }

func ljEnergy(lj1, lj2, r6inv float64) float64 {
	return r6inv * (lj1*r6inv - lj2)
}
