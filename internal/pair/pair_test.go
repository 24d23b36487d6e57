package pair

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/params"
)

type attrs struct {
	qi, qj float64
	di, dj float64
}

func eval[E any, P any, PE Ptr[E, P]](p *P, r, rcut float64, a attrs, shift bool) (float64, float64, bool) {
	var e E
	pe := PE(&e)
	pe.Init(Geometry{RSq: r * r, Contact: 0.5 * (a.di + a.dj), Types: [2]uint32{0, 0}, RCutSq: rcut * rcut}, p)
	pe.SetCharge(a.qi, a.qj)
	pe.SetDiameter(a.di, a.dj)
	return pe.Eval(shift)
}

func sampleTable() *TableParams {
	n := 51
	p := &TableParams{RMin: 0.5, V: make([]float64, n), F: make([]float64, n)}
	rcut := 3.0
	dr := (rcut - p.RMin) / float64(n-1)
	for i := 0; i < n; i++ {
		r := p.RMin + float64(i)*dr
		p.V[i] = 1 / r
		p.F[i] = 1 / (r * r)
	}
	return p
}

func TestOutOfRangeNotEvaluated(t *testing.T) {
	unit := attrs{qi: 1, qj: -1, di: 1, dj: 1}
	rcut := 3.0

	tests := []struct {
		name string
		fn   func(r float64) bool
	}{
		{"ewald", func(r float64) bool {
			_, _, ok := eval[Ewald](&EwaldParams{Kappa: 1, Alpha: 0.5}, r, rcut, unit, false)
			return ok
		}},
		{"fourier", func(r float64) bool {
			_, _, ok := eval[Fourier](&FourierParams{A: [3]float64{0.1, 0.2, 0.3}}, r, rcut, unit, false)
			return ok
		}},
		{"morse", func(r float64) bool {
			_, _, ok := eval[Morse](&MorseParams{D0: 1, Alpha: 1, R0: 1}, r, rcut, unit, false)
			return ok
		}},
		{"lj", func(r float64) bool {
			_, _, ok := eval[LJ](&LJParams{Epsilon: 1, Sigma: 1}, r, rcut, unit, false)
			return ok
		}},
		{"table", func(r float64) bool {
			_, _, ok := eval[Table](sampleTable(), r, rcut, unit, false)
			return ok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range []float64{rcut, rcut + 1e-9, 2 * rcut, 100} {
				if tt.fn(r) {
					t.Errorf("r=%v: expected not evaluated", r)
				}
			}
			if !tt.fn(0.9 * rcut) {
				t.Error("r=0.9*rcut: expected evaluated")
			}
		})
	}
}

func TestEnergyShiftZeroAtCutoff(t *testing.T) {
	unit := attrs{qi: 2, qj: 1.5, di: 1.1, dj: 0.9}
	rcut := 3.0
	r := rcut * (1 - 1e-10)

	tests := []struct {
		name string
		fn   func() (float64, bool)
	}{
		{"ewald", func() (float64, bool) {
			_, u, ok := eval[Ewald](&EwaldParams{Kappa: 0.8, Alpha: 0.3}, r, rcut, unit, true)
			return u, ok
		}},
		{"fourier", func() (float64, bool) {
			_, u, ok := eval[Fourier](&FourierParams{A: [3]float64{0.5, -0.2, 0.1}, B: [3]float64{0.3, 0.1, -0.4}}, r, rcut, unit, true)
			return u, ok
		}},
		{"morse", func() (float64, bool) {
			_, u, ok := eval[Morse](&MorseParams{D0: 2, Alpha: 1.5, R0: 1.2}, r, rcut, unit, true)
			return u, ok
		}},
		{"morse poly", func() (float64, bool) {
			_, u, ok := eval[Morse](&MorseParams{D0: 2, Alpha: 1.5, R0: 1.2, Poly: 0.05}, r, rcut, unit, true)
			return u, ok
		}},
		{"lj", func() (float64, bool) {
			_, u, ok := eval[LJ](&LJParams{Epsilon: 1, Sigma: 1}, r, rcut, unit, true)
			return u, ok
		}},
		{"table", func() (float64, bool) {
			_, u, ok := eval[Table](sampleTable(), r, rcut, unit, true)
			return u, ok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := tt.fn()
			if !ok {
				t.Fatal("expected evaluated just inside the cutoff")
			}
			if math.Abs(u) > 1e-8 {
				t.Errorf("shifted energy at cutoff = %g, want 0", u)
			}
		})
	}
}

func TestEwaldZeroChargeProduct(t *testing.T) {
	p := &EwaldParams{Kappa: 1, Alpha: 0.5}
	for _, a := range []attrs{{qi: 0, qj: 1}, {qi: 1, qj: 0}, {qi: 0, qj: 0}} {
		for _, r := range []float64{0.1, 0.5, 1.0, 2.9} {
			if _, _, ok := eval[Ewald](p, r, 3, a, false); ok {
				t.Errorf("q=(%v,%v) r=%v: expected not evaluated", a.qi, a.qj, r)
			}
		}
	}
}

func TestEwaldForceIsEnergyDerivative(t *testing.T) {
	p := &EwaldParams{Kappa: 0.9, Alpha: 0.4}
	a := attrs{qi: 1, qj: 1}
	r, h := 1.3, 1e-6

	f, _, _ := eval[Ewald](p, r, 5, a, false)
	_, up, _ := eval[Ewald](p, r+h, 5, a, false)
	_, um, _ := eval[Ewald](p, r-h, 5, a, false)

	want := -(up - um) / (2 * h) / r
	if math.Abs(f-want) > 1e-6 {
		t.Errorf("force/r = %.10f, want %.10f", f, want)
	}
}

func TestMorseMinimum(t *testing.T) {
	p := &MorseParams{D0: 1, Alpha: 1, R0: 1, Poly: 0}
	f, u, ok := eval[Morse](p, 1.0, 3, attrs{}, false)
	if !ok {
		t.Fatal("expected evaluated")
	}
	if math.Abs(u-(-1.0)) > 1e-12 {
		t.Errorf("energy = %v, want -1", u)
	}
	if math.Abs(f) > 1e-12 {
		t.Errorf("force/r = %v, want 0", f)
	}
}

func TestMorsePolydisperseSubstitution(t *testing.T) {
	mono := &MorseParams{D0: 1, Alpha: 1, R0: 1, Poly: 0}
	poly := &MorseParams{D0: 1, Alpha: 1, R0: 5, Poly: 0.05}

	for _, r := range []float64{0.8, 1.0, 1.7} {
		for _, shift := range []bool{false, true} {
			fm, um, _ := eval[Morse](mono, r, 3, attrs{}, shift)
			fp, up, ok := eval[Morse](poly, r, 3, attrs{di: 0.8, dj: 1.2}, shift)
			if !ok {
				t.Fatalf("r=%v: expected evaluated", r)
			}
			if fm != fp || um != up {
				t.Errorf("r=%v shift=%v: poly (%v, %v) != mono (%v, %v)", r, shift, fp, up, fm, um)
			}
		}
	}
}

func TestMorseIgnoresDiameterWithoutPoly(t *testing.T) {
	p := &MorseParams{D0: 1, Alpha: 2, R0: 1.1}
	f1, u1, _ := eval[Morse](p, 1.3, 3, attrs{di: 0.5, dj: 0.5}, false)
	f2, u2, _ := eval[Morse](p, 1.3, 3, attrs{di: 3, dj: 4}, false)
	if f1 != f2 || u1 != u2 {
		t.Error("diameters changed the result with poly = 0")
	}
}

func TestFourierZeroCoefficients(t *testing.T) {
	p := &FourierParams{}
	rcut := 3.0
	for _, r := range []float64{0.7, 1.0, 1.5, 2.2, 2.99} {
		f, u, ok := eval[Fourier](p, r, rcut, attrs{}, false)
		if !ok {
			t.Fatalf("r=%v: expected evaluated", r)
		}
		wantU := math.Pow(r, -12)
		wantF := 12 * math.Pow(r, -14)
		if math.Abs(u-wantU) > 1e-12*wantU {
			t.Errorf("r=%v: energy = %v, want %v", r, u, wantU)
		}
		if math.Abs(f-wantF) > 1e-12*wantF {
			t.Errorf("r=%v: force/r = %v, want %v", r, f, wantF)
		}
	}
}

func TestFourierShiftMatchesCutoffEnergy(t *testing.T) {
	p := &FourierParams{A: [3]float64{0.5, -0.2, 0.1}, B: [3]float64{0.3, 0.1, -0.4}}
	rcut := 2.5
	_, vcut := fourierTerms(p, rcut, rcut*rcut, math.Pi/rcut)

	for _, r := range []float64{0.9, 1.4, 2.0, 2.4} {
		_, plain, _ := eval[Fourier](p, r, rcut, attrs{}, false)
		_, shifted, _ := eval[Fourier](p, r, rcut, attrs{}, true)
		if d := plain - shifted; math.Abs(d-vcut) > 1e-14*math.Max(1, math.Abs(vcut)) {
			t.Errorf("r=%v: shift = %v, want V(rc) = %v", r, d, vcut)
		}
	}

	_, u, _ := eval[Fourier](p, rcut*(1-1e-9), rcut, attrs{}, true)
	if math.Abs(u) > 1e-6 {
		t.Errorf("shifted energy just inside the cutoff = %v, want ~0", u)
	}

	_, bare := fourierTerms(&FourierParams{}, rcut, rcut*rcut, math.Pi/rcut)
	if want := math.Pow(rcut, -12); math.Abs(bare-want) > 1e-15*want {
		t.Errorf("V(rc) with zero coefficients = %v, want %v", bare, want)
	}
}

func TestFourierBorrowsParams(t *testing.T) {
	p := &FourierParams{}
	var e Fourier
	e.Init(Geometry{RSq: 1, RCutSq: 9}, p)
	if e.params != p {
		t.Fatal("fourier evaluator must reference the stored parameters")
	}
}

func TestLJTailIntegrals(t *testing.T) {
	p := &LJParams{Epsilon: 1.2, Sigma: 0.9}
	rcut := 2.5

	var e LJ
	e.Init(Geometry{RSq: 1, RCutSq: rcut * rcut}, p)

	v := func(r float64) float64 {
		sr6 := math.Pow(p.Sigma/r, 6)
		return 4 * p.Epsilon * (sr6*sr6 - sr6)
	}
	dv := func(r float64) float64 {
		sr6 := math.Pow(p.Sigma/r, 6)
		return 4 * p.Epsilon * (-12*sr6*sr6 + 6*sr6) / r
	}

	energy := simpson(func(r float64) float64 { return r * r * v(r) }, rcut, 400, 400000)
	pressure := -simpson(func(r float64) float64 { return r * r * r * dv(r) }, rcut, 400, 400000)

	if got := e.EnergyLRCIntegral(); math.Abs(got-energy) > 1e-6 {
		t.Errorf("energy integral = %.9f, want %.9f", got, energy)
	}
	if got := e.PressureLRCIntegral(); math.Abs(got-pressure) > 1e-6 {
		t.Errorf("pressure integral = %.9f, want %.9f", got, pressure)
	}
}

func TestNoTailForOtherFamilies(t *testing.T) {
	var ew Ewald
	ew.Init(Geometry{RSq: 1, RCutSq: 9}, &EwaldParams{Kappa: 1, Alpha: 1})
	var mo Morse
	mo.Init(Geometry{RSq: 1, RCutSq: 9}, &MorseParams{D0: 1, Alpha: 1, R0: 1})
	var fo Fourier
	fo.Init(Geometry{RSq: 1, RCutSq: 9}, &FourierParams{})

	for name, v := range map[string][2]float64{
		"ewald":   {ew.EnergyLRCIntegral(), ew.PressureLRCIntegral()},
		"morse":   {mo.EnergyLRCIntegral(), mo.PressureLRCIntegral()},
		"fourier": {fo.EnergyLRCIntegral(), fo.PressureLRCIntegral()},
	} {
		if v[0] != 0 || v[1] != 0 {
			t.Errorf("%s: expected zero tail, got %v", name, v)
		}
	}
}

func TestShapeSpecUnsupported(t *testing.T) {
	shapes := map[string]func() (Shape, error){
		"ewald":   Ewald{}.ShapeSpec,
		"fourier": Fourier{}.ShapeSpec,
		"morse":   Morse{}.ShapeSpec,
		"lj":      LJ{}.ShapeSpec,
		"table":   Table{}.ShapeSpec,
	}
	for name, fn := range shapes {
		s, err := fn()
		if err == nil {
			t.Errorf("%s: expected error, got shape %v", name, s)
			continue
		}
		if !errors.Is(err, dynamo.ErrShapeUnsupported) {
			t.Errorf("%s: error %v does not wrap ErrShapeUnsupported", name, err)
		}
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want Capabilities
	}{
		{"ewald", CapabilitiesOf[Ewald](), Capabilities{Charge: true}},
		{"fourier", CapabilitiesOf[Fourier](), Capabilities{}},
		{"morse", CapabilitiesOf[Morse](), Capabilities{Diameter: true}},
		{"lj", CapabilitiesOf[LJ](), Capabilities{}},
		{"table", CapabilitiesOf[Table](), Capabilities{}},
	}
	for _, tt := range tests {
		if tt.caps != tt.want {
			t.Errorf("%s: capabilities = %+v, want %+v", tt.name, tt.caps, tt.want)
		}
	}

	if NameOf[Morse]() != "morse" || NameOf[Ewald]() != "ewald" || NameOf[Fourier]() != "fourier" {
		t.Error("unexpected family names")
	}
}

func TestUnneededSettersAreNoOps(t *testing.T) {
	p := &FourierParams{A: [3]float64{0.2, 0.1, 0}, B: [3]float64{0, 0.3, 0}}

	var plain Fourier
	plain.Init(Geometry{RSq: 1.44, RCutSq: 9}, p)
	f1, u1, _ := plain.Eval(false)

	var noisy Fourier
	noisy.Init(Geometry{RSq: 1.44, RCutSq: 9}, p)
	noisy.SetCharge(5, -3)
	noisy.SetDiameter(2, 7)
	noisy.SetTags(11, 12)
	noisy.SetPositions(dynamo.Vec3{X: 1}, dynamo.Vec3{Y: 2})
	noisy.SetTimestep(1000)
	noisy.SetBox(dynamo.NewCubicBox(10))
	f2, u2, _ := noisy.Eval(false)

	if f1 != f2 || u1 != u2 {
		t.Errorf("setters changed result: (%v,%v) vs (%v,%v)", f1, u1, f2, u2)
	}
}

func TestTableInterpolatesLinearData(t *testing.T) {
	n := 11
	p := &TableParams{RMin: 1, V: make([]float64, n), F: make([]float64, n)}
	rcut := 3.0
	dr := (rcut - p.RMin) / float64(n-1)
	for i := 0; i < n; i++ {
		r := p.RMin + float64(i)*dr
		p.V[i] = 6 - 2*r
		p.F[i] = 2
	}

	f, u, ok := eval[Table](p, 1.73, rcut, attrs{}, false)
	if !ok {
		t.Fatal("expected evaluated")
	}
	if math.Abs(u-(6-2*1.73)) > 1e-12 {
		t.Errorf("energy = %v, want %v", u, 6-2*1.73)
	}
	if math.Abs(f-2/1.73) > 1e-12 {
		t.Errorf("force/r = %v, want %v", f, 2/1.73)
	}

	if _, _, ok := eval[Table](p, 0.9, rcut, attrs{}, false); ok {
		t.Error("expected not evaluated below r_min")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	t.Run("morse", func(t *testing.T) {
		rec := params.Record{"D0": 1.5, "alpha": 30.0, "r0": 2.0, "poly": 0.05}
		p, err := NewMorseParams(rec, false)
		if err != nil {
			t.Fatal(err)
		}
		back := p.Record()
		for _, k := range rec.Keys() {
			if back[k] != rec[k] {
				t.Errorf("%s: got %v, want %v", k, back[k], rec[k])
			}
		}
	})

	t.Run("ewald", func(t *testing.T) {
		rec := params.Record{"kappa": 0.75, "alpha": 0.125}
		p, err := NewEwaldParams(rec, true)
		if err != nil {
			t.Fatal(err)
		}
		back := p.Record()
		if back["kappa"] != 0.75 || back["alpha"] != 0.125 {
			t.Errorf("round trip mismatch: %v", back)
		}
	})

	t.Run("fourier", func(t *testing.T) {
		rec := params.Record{"a": []any{0.1, -0.2, 3}, "b": []any{1e-3, 0.0, -7.5}}
		p, err := NewFourierParams(rec, false)
		if err != nil {
			t.Fatal(err)
		}
		q, err := NewFourierParams(p.Record(), false)
		if err != nil {
			t.Fatal(err)
		}
		if p != q {
			t.Errorf("round trip mismatch: %+v vs %+v", p, q)
		}
		if q.A != [3]float64{0.1, -0.2, 3} || q.B != [3]float64{1e-3, 0, -7.5} {
			t.Errorf("unexpected values %+v", q)
		}
	})

	t.Run("table", func(t *testing.T) {
		rec := params.Record{"r_min": 0.5, "V": []any{3.0, 2.0, 1.0}, "F": []any{1.0, 1.0, 1.0}}
		p, err := NewTableParams(rec, true)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Managed() {
			t.Error("managed flag lost")
		}
		q, err := NewTableParams(p.Record(), true)
		if err != nil {
			t.Fatal(err)
		}
		if q.RMin != 0.5 || len(q.V) != 3 || q.V[1] != 2 || q.F[2] != 1 {
			t.Errorf("unexpected values %+v", q)
		}
	})
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"morse missing poly", func() error {
			_, err := NewMorseParams(params.Record{"D0": 1.0, "alpha": 1.0, "r0": 1.0}, false)
			return err
		}},
		{"ewald string kappa", func() error {
			_, err := NewEwaldParams(params.Record{"kappa": "big", "alpha": 1.0}, false)
			return err
		}},
		{"fourier short a", func() error {
			_, err := NewFourierParams(params.Record{"a": []any{1.0, 2.0}, "b": []any{1.0, 2.0, 3.0}}, false)
			return err
		}},
		{"fourier scalar b", func() error {
			_, err := NewFourierParams(params.Record{"a": []any{1.0, 2.0, 3.0}, "b": 1.0}, false)
			return err
		}},
		{"lj bool sigma", func() error {
			_, err := NewLJParams(params.Record{"epsilon": 1.0, "sigma": true}, false)
			return err
		}},
		{"table length mismatch", func() error {
			_, err := NewTableParams(params.Record{"r_min": 0.5, "V": []any{1.0, 2.0}, "F": []any{1.0}}, false)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, dynamo.ErrConfig) {
				t.Errorf("error %v does not wrap ErrConfig", err)
			}
			var ce *dynamo.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("error %v is not a *ConfigError", err)
			}
		})
	}
}

func simpson(f func(float64) float64, a, b float64, n int) float64 {
	if n%2 == 1 {
		n++
	}
	h := (b - a) / float64(n)
	sum := f(a) + f(b)
	for i := 1; i < n; i++ {
		x := a + float64(i)*h
		if i%2 == 1 {
			sum += 4 * f(x)
		} else {
			sum += 2 * f(x)
		}
	}
	return sum * h / 3
}
