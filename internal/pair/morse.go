package pair

import (
	"math"

	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/shmem"
)

// MorseParams configure the attractive well for one type pair.
type MorseParams struct {
	D0    float64 // well depth
	Alpha float64 // inverse well width
	R0    float64 // position of the minimum
	Poly  float64 // nonzero: use the particles' mean radius sum instead of R0
}

func NewMorseParams(rec params.Record, managed bool) (MorseParams, error) {
	var p MorseParams
	var err error
	if p.D0, err = params.Scalar(rec, "morse", "D0"); err != nil {
		return p, err
	}
	if p.Alpha, err = params.Scalar(rec, "morse", "alpha"); err != nil {
		return p, err
	}
	if p.R0, err = params.Scalar(rec, "morse", "r0"); err != nil {
		return p, err
	}
	if p.Poly, err = params.Scalar(rec, "morse", "poly"); err != nil {
		return p, err
	}
	return p, nil
}

func (p MorseParams) Record() params.Record {
	return params.Record{"D0": p.D0, "alpha": p.Alpha, "r0": p.R0, "poly": p.Poly}
}

func (p *MorseParams) AllocateShared(c *shmem.Cursor) {}
func (p *MorseParams) LoadShared(c *shmem.Cursor)     {}

// Morse evaluates
//
//	V(r) = D0 [exp(−2α(r − r̄)) − 2 exp(−α(r − r̄))]
//
// where r̄ is R0, or 0.5(d_i + d_j) for polydisperse systems.
type Morse struct {
	base
	d0, alpha, r0, poly float64
	diameteri           float64
	diameterj           float64
}

func (Morse) Name() string        { return "morse" }
func (Morse) NeedsDiameter() bool { return true }

func (m *Morse) Init(g Geometry, p *MorseParams) {
	m.bind(g)
	m.d0 = p.D0
	m.alpha = p.Alpha
	m.r0 = p.R0
	m.poly = p.Poly
	m.diameteri = 0
	m.diameterj = 0
}

func (m *Morse) SetDiameter(di, dj float64) {
	m.diameteri = di
	m.diameterj = dj
}

func (m *Morse) Eval(shift bool) (float64, float64, bool) {
	radsum := m.r0
	if m.poly != 0 {
		radsum = 0.5 * (m.diameteri + m.diameterj)
	}

	if m.rsq >= m.rcutsq {
		return 0, 0, false
	}

	r := math.Sqrt(m.rsq)
	expFactor := math.Exp(-m.alpha * (r - radsum))

	energy := morseEnergy(m.d0, expFactor)
	forceDivR := 2 * m.d0 * m.alpha * expFactor * (expFactor - 1) / r

	if shift {
		rcut := math.Sqrt(m.rcutsq)
		energy -= morseEnergy(m.d0, math.Exp(-m.alpha*(rcut-radsum)))
	}
	return forceDivR, energy, true
}

func (m Morse) ShapeSpec() (Shape, error) { return noShape(m.Name()) }

func morseEnergy(d0, expFactor float64) float64 {
	return d0 * expFactor * (expFactor - 2)
}
