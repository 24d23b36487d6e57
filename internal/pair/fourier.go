package pair

import (
	"math"

	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/shmem"
)

// FourierParams hold the n = 2..4 cosine and sine coefficients. The first
// harmonic is derived from them at evaluation time.
type FourierParams struct {
	A [3]float64
	B [3]float64
}

func NewFourierParams(rec params.Record, managed bool) (FourierParams, error) {
	var p FourierParams
	a, err := params.Scalars(rec, "fourier", "a", 3)
	if err != nil {
		return p, err
	}
	b, err := params.Scalars(rec, "fourier", "b", 3)
	if err != nil {
		return p, err
	}
	copy(p.A[:], a)
	copy(p.B[:], b)
	return p, nil
}

func (p FourierParams) Record() params.Record {
	return params.Record{
		"a": []float64{p.A[0], p.A[1], p.A[2]},
		"b": []float64{p.B[0], p.B[1], p.B[2]},
	}
}

func (p *FourierParams) AllocateShared(c *shmem.Cursor) {}
func (p *FourierParams) LoadShared(c *shmem.Cursor)     {}

// Fourier evaluates
//
//	V(r) = 1/r^12 + 1/r^2 Σ_{n=1}^{4} [a_n cos(nπr/rc) + b_n sin(nπr/rc)]
//
// with a_1 = Σ_{n=2}^{4} (-1)^n a_n and b_1 = Σ_{n=2}^{4} n (-1)^n b_n.
// The evaluator borrows its parameters; it never copies them.
type Fourier struct {
	base
	params *FourierParams
}

func (Fourier) Name() string { return "fourier" }

func (f *Fourier) Init(g Geometry, p *FourierParams) {
	f.bind(g)
	f.params = p
}

func (f *Fourier) Eval(shift bool) (float64, float64, bool) {
	if f.rsq >= f.rcutsq {
		return 0, 0, false
	}

	halfPeriod := math.Sqrt(f.rcutsq)
	periodScale := math.Pi / halfPeriod
	forceDivR, energy := fourierTerms(f.params, math.Sqrt(f.rsq), f.rsq, periodScale)

	if shift {
		_, vcut := fourierTerms(f.params, halfPeriod, f.rcutsq, periodScale)
		energy -= vcut
	}
	return forceDivR, energy, true
}

func (f Fourier) ShapeSpec() (Shape, error) { return noShape(f.Name()) }

// fourierSeries returns the harmonic sum at x = πr/rc and the sum of its
// per-harmonic derivative factors.
func fourierSeries(p *FourierParams, x float64) (part, dpart float64) {
	a1, b1 := 0.0, 0.0
	for i := 2; i < 5; i++ {
		sign := 1.0
		if i&1 == 1 {
			sign = -1.0
		}
		a1 += sign * p.A[i-2]
		b1 += float64(i) * sign * p.B[i-2]
	}

	s, c := math.Sincos(x)
	part = a1*c + b1*s
	dpart = a1*s - b1*c

	for i := 2; i < 5; i++ {
		n := float64(i)
		s, c = math.Sincos(n * x)
		part += p.A[i-2]*c + p.B[i-2]*s
		dpart += p.A[i-2]*n*s - p.B[i-2]*n*c
	}
	return part, dpart
}

// fourierTerms returns F/r and V at separation r, with rsq = r*r. The
// cutoff shift goes through here too so both use one expression.
func fourierTerms(p *FourierParams, r, rsq, periodScale float64) (forceDivR, energy float64) {
	r1inv := 1 / r
	r2inv := 1 / rsq
	r3inv := r1inv * r2inv
	r12inv := r3inv * r3inv * r3inv * r3inv

	part, dpart := fourierSeries(p, r*periodScale)

	forceDivR = r1inv * (r1inv*r12inv*12 + r2inv*periodScale*dpart + 2*r3inv*part)
	energy = r12inv + r2inv*part
	return forceDivR, energy
}
