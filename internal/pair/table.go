package pair

import (
	"fmt"
	"math"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/shmem"
)

// TableParams tabulate V(r) and F(r) = −dV/dr on a uniform grid from RMin
// to the pair cutoff. The samples are out-of-line data, so the type stages
// them into shared memory.
type TableParams struct {
	RMin    float64
	V       []float64
	F       []float64
	managed bool
}

func NewTableParams(rec params.Record, managed bool) (TableParams, error) {
	var p TableParams
	var err error
	if p.RMin, err = params.Scalar(rec, "table", "r_min"); err != nil {
		return p, err
	}
	if p.V, err = params.ScalarList(rec, "table", "V"); err != nil {
		return p, err
	}
	if p.F, err = params.ScalarList(rec, "table", "F"); err != nil {
		return p, err
	}
	if len(p.V) != len(p.F) {
		return p, &dynamo.ConfigError{Family: "table", Key: "F", Reason: fmt.Sprintf("len(V)=%d does not match len(F)=%d", len(p.V), len(p.F))}
	}
	if len(p.V) < 2 {
		return p, &dynamo.ConfigError{Family: "table", Key: "V", Reason: "need at least 2 samples"}
	}
	p.managed = managed
	return p, nil
}

func (p TableParams) Record() params.Record {
	v := make([]float64, len(p.V))
	f := make([]float64, len(p.F))
	copy(v, p.V)
	copy(f, p.F)
	return params.Record{"r_min": p.RMin, "V": v, "F": f}
}

// Managed reports whether the samples live in accelerator-resident memory.
func (p TableParams) Managed() bool { return p.managed }

func (p *TableParams) AllocateShared(c *shmem.Cursor) {
	c.Reserve(len(p.V))
	c.Reserve(len(p.F))
}

// LoadShared copies the samples into the group arena and points the
// parameters at the staged copy. Samples that do not fit stay in bulk memory.
func (p *TableParams) LoadShared(c *shmem.Cursor) {
	if v, ok := c.Reserve(len(p.V)); ok && v != nil {
		copy(v, p.V)
		p.V = v
	}
	if f, ok := c.Reserve(len(p.F)); ok && f != nil {
		copy(f, p.F)
		p.F = f
	}
}

// Table interpolates tabulated samples linearly.
type Table struct {
	base
	params *TableParams
}

func (Table) Name() string { return "table" }

func (t *Table) Init(g Geometry, p *TableParams) {
	t.bind(g)
	t.params = p
}

func (t *Table) Eval(shift bool) (float64, float64, bool) {
	if t.rsq >= t.rcutsq || len(t.params.V) < 2 {
		return 0, 0, false
	}
	r := math.Sqrt(t.rsq)
	if r < t.params.RMin {
		return 0, 0, false
	}

	rcut := math.Sqrt(t.rcutsq)
	energy, force := tableInterp(t.params, r, rcut)
	if shift {
		vcut, _ := tableInterp(t.params, rcut, rcut)
		energy -= vcut
	}
	return force / r, energy, true
}

func (t Table) ShapeSpec() (Shape, error) { return noShape(t.Name()) }

func tableInterp(p *TableParams, r, rcut float64) (v, f float64) {
	width := len(p.V)
	dr := (rcut - p.RMin) / float64(width-1)
	x := (r - p.RMin) / dr
	i := int(x)
	if i >= width-1 {
		return p.V[width-1], p.F[width-1]
	}
	frac := x - float64(i)
	v = p.V[i] + frac*(p.V[i+1]-p.V[i])
	f = p.F[i] + frac*(p.F[i+1]-p.F[i])
	return v, f
}
