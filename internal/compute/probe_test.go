package compute_test

import (
	"sync/atomic"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/shmem"
)

// probeParams counts how often groups load them. onLoad, when set, runs
// on every load.
type probeParams struct {
	Scale  float64
	loads  *atomic.Int64
	onLoad func()
}

func (p *probeParams) AllocateShared(c *shmem.Cursor) { c.Reserve(1) }

func (p *probeParams) LoadShared(c *shmem.Cursor) {
	p.loads.Add(1)
	if p.onLoad != nil {
		p.onLoad()
	}
	if s, ok := c.Reserve(1); ok && s != nil {
		s[0] = p.Scale
	}
}

func (p probeParams) Record() params.Record { return params.Record{"scale": p.Scale} }

// probe returns energy Scale for every pair whose tags were supplied.
type probe struct {
	rsq, rcutsq float64
	params      *probeParams
	tagged      bool
}

func (probe) Name() string         { return "probe" }
func (probe) NeedsCharge() bool    { return false }
func (probe) NeedsDiameter() bool  { return false }
func (probe) NeedsTags() bool      { return true }
func (probe) NeedsPositions() bool { return false }
func (probe) NeedsTimestep() bool  { return false }
func (probe) NeedsBox() bool       { return false }

func (e *probe) Init(g pair.Geometry, p *probeParams) {
	e.rsq, e.rcutsq, e.params, e.tagged = g.RSq, g.RCutSq, p, false
}

func (e *probe) SetCharge(qi, qj float64)        { panic("charge was not requested") }
func (e *probe) SetDiameter(di, dj float64)      { panic("diameter was not requested") }
func (e *probe) SetTags(ti, tj uint32)           { e.tagged = true }
func (e *probe) SetPositions(pi, pj dynamo.Vec3) { panic("positions were not requested") }
func (e *probe) SetTimestep(step uint64)         { panic("timestep was not requested") }
func (e *probe) SetBox(box dynamo.Box)           { panic("box was not requested") }

func (e *probe) Eval(shift bool) (float64, float64, bool) {
	if e.rsq >= e.rcutsq {
		return 0, 0, false
	}
	if !e.tagged {
		return 0, 0, true
	}
	return 0, e.params.Scale, true
}

func (probe) PressureLRCIntegral() float64 { return 0 }
func (probe) EnergyLRCIntegral() float64   { return 0 }

func (probe) ShapeSpec() (pair.Shape, error) {
	return nil, &dynamo.ShapeError{Potential: "probe"}
}
