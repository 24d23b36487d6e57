package pair

import (
	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/params"
)

// Geometry is what the driver knows about one candidate pair before any
// optional attribute is fetched.
type Geometry struct {
	RSq     float64   // squared center-to-center distance
	Contact float64   // sum of the two interaction radii
	Types   [2]uint32 // type ids of particle i and j
	RCutSq  float64   // squared cutoff for this type pair
}

// Traits are the per-family probes. They are methods on the value type and
// never read receiver state, so the zero value answers them.
type Traits interface {
	Name() string
	NeedsCharge() bool
	NeedsDiameter() bool
	NeedsTags() bool
	NeedsPositions() bool
	NeedsTimestep() bool
	NeedsBox() bool
}

// Evaluator is the per-pair contract. A driver calls Init once, then the
// setters whose probe is true, then Eval once.
type Evaluator[P any] interface {
	Traits

	Init(g Geometry, p *P)

	SetCharge(qi, qj float64)
	SetDiameter(di, dj float64)
	SetTags(ti, tj uint32)
	SetPositions(pi, pj dynamo.Vec3)
	SetTimestep(step uint64)
	SetBox(box dynamo.Box)

	// Eval returns the force divided by r and the pair energy. Both are
	// only meaningful when ok is true.
	Eval(shift bool) (forceDivR, energy float64, ok bool)

	PressureLRCIntegral() float64
	EnergyLRCIntegral() float64

	ShapeSpec() (Shape, error)
}

// Ptr lets generic code hold an evaluator as a stack value E and call its
// pointer methods through *E.
type Ptr[E any, P any] interface {
	*E
	Evaluator[P]
}

// Param is the contract on a family's parameter type.
type Param interface {
	params.Stager
	Record() params.Record
}

// ParamPtr constrains *P to the parameter contract.
type ParamPtr[P any] interface {
	*P
	Param
}

// Shape is a structured description of a geometric body.
type Shape map[string]any

// Capabilities caches the probes of one evaluator type.
type Capabilities struct {
	Charge    bool
	Diameter  bool
	Tags      bool
	Positions bool
	Timestep  bool
	Box       bool
}

// CapabilitiesOf resolves the probes of E without constructing a pair.
func CapabilitiesOf[E Traits]() Capabilities {
	var e E
	return Capabilities{
		Charge:    e.NeedsCharge(),
		Diameter:  e.NeedsDiameter(),
		Tags:      e.NeedsTags(),
		Positions: e.NeedsPositions(),
		Timestep:  e.NeedsTimestep(),
		Box:       e.NeedsBox(),
	}
}

// NameOf returns the family name of E.
func NameOf[E Traits]() string {
	var e E
	return e.Name()
}

// base holds the geometry every family binds and the no-op defaults for
// optional attributes.
type base struct {
	rsq     float64
	contact float64
	rcutsq  float64
	typei   uint32
	typej   uint32
}

func (b *base) bind(g Geometry) {
	b.rsq = g.RSq
	b.contact = g.Contact
	b.rcutsq = g.RCutSq
	b.typei = g.Types[0]
	b.typej = g.Types[1]
}

func (base) NeedsCharge() bool    { return false }
func (base) NeedsDiameter() bool  { return false }
func (base) NeedsTags() bool      { return false }
func (base) NeedsPositions() bool { return false }
func (base) NeedsTimestep() bool  { return false }
func (base) NeedsBox() bool       { return false }

func (*base) SetCharge(qi, qj float64)        {}
func (*base) SetDiameter(di, dj float64)      {}
func (*base) SetTags(ti, tj uint32)           {}
func (*base) SetPositions(pi, pj dynamo.Vec3) {}
func (*base) SetTimestep(step uint64)         {}
func (*base) SetBox(box dynamo.Box)           {}

func (base) PressureLRCIntegral() float64 { return 0 }
func (base) EnergyLRCIntegral() float64   { return 0 }

func noShape(name string) (Shape, error) {
	return nil, &dynamo.ShapeError{Potential: name}
}
