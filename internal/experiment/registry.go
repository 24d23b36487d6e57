package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/nlist"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/sim"
)

// Outcome is what one family run produces before summarizing.
type Outcome struct {
	Accumulator  *sim.Accumulator
	Stats        compute.Stats
	TailEnergy   float64
	TailPressure float64
	Records      map[string]params.Record
}

// Family is one compiled-in potential family. Its closures hold the
// generic driver instantiated for the family's evaluator type.
type Family struct {
	Name         string
	Keys         []string
	Capabilities pair.Capabilities

	run   func(ctx context.Context, cfg *config.Config, sys *sim.System, list *nlist.List, opts compute.Options) (*Outcome, error)
	curve func(rec params.Record, rmin, rcut float64, n int, shift bool, attrs compute.PairAttrs) ([]compute.Sample, error)
	check func(rec params.Record) (params.Record, error)
}

// Run builds the family's parameter table from cfg and computes forces.
func (f *Family) Run(ctx context.Context, cfg *config.Config, sys *sim.System, list *nlist.List, opts compute.Options) (*Outcome, error) {
	return f.run(ctx, cfg, sys, list, opts)
}

// Curve samples the pair potential of one record.
func (f *Family) Curve(rec params.Record, rmin, rcut float64, n int, shift bool, attrs compute.PairAttrs) ([]compute.Sample, error) {
	return f.curve(rec, rmin, rcut, n, shift, attrs)
}

// Normalize decodes a record and re-encodes it, reporting missing or
// mistyped keys.
func (f *Family) Normalize(rec params.Record) (params.Record, error) {
	return f.check(rec)
}

type Registry struct {
	families map[string]*Family
}

func NewRegistry() *Registry {
	r := &Registry{families: make(map[string]*Family)}

	register[pair.Ewald](r, []string{"kappa", "alpha"}, pair.NewEwaldParams)
	register[pair.Fourier](r, []string{"a", "b"}, pair.NewFourierParams)
	register[pair.Morse](r, []string{"D0", "alpha", "r0", "poly"}, pair.NewMorseParams)
	register[pair.LJ](r, []string{"epsilon", "sigma"}, pair.NewLJParams)
	register[pair.Table](r, []string{"r_min", "V", "F"}, pair.NewTableParams)

	return r
}

func (r *Registry) Get(name string) (*Family, error) {
	f, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownFamily, name)
	}
	return f, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func register[E pair.Traits, P any, PE pair.Ptr[E, P], PP pair.ParamPtr[P]](r *Registry, keys []string, decode func(params.Record, bool) (P, error)) {
	name := pair.NameOf[E]()
	encode := func(p *P) params.Record { return PP(p).Record() }

	r.families[name] = &Family{
		Name:         name,
		Keys:         keys,
		Capabilities: pair.CapabilitiesOf[E](),

		run: func(ctx context.Context, cfg *config.Config, sys *sim.System, list *nlist.List, opts compute.Options) (*Outcome, error) {
			tbl, err := BuildTable(cfg, decode)
			if err != nil {
				return nil, err
			}
			acc, st, err := compute.Compute[E, P, PE, PP](ctx, sys, list, tbl, opts)
			if err != nil {
				return nil, err
			}
			out := &Outcome{Accumulator: acc, Stats: st, Records: tbl.Records(encode)}
			if cfg.TailCorrection {
				out.TailEnergy, out.TailPressure = compute.TailCorrections[E, P, PE](sys, tbl)
			}
			return out, nil
		},

		curve: func(rec params.Record, rmin, rcut float64, n int, shift bool, attrs compute.PairAttrs) ([]compute.Sample, error) {
			p, err := decode(rec, false)
			if err != nil {
				return nil, err
			}
			return compute.Curve[E, P, PE](&p, rmin, rcut, n, shift, attrs), nil
		},

		check: func(rec params.Record) (params.Record, error) {
			p, err := decode(rec, false)
			if err != nil {
				return nil, err
			}
			return encode(&p), nil
		},
	}
}

// BuildTable decodes every pair record of cfg into a parameter table and
// applies the per-pair cutoffs.
func BuildTable[P any](cfg *config.Config, decode func(params.Record, bool) (P, error)) (*params.Table[P], error) {
	tbl, err := params.FromRecords(cfg.Family, cfg.Types, cfg.Records(), func(rec params.Record) (P, error) {
		return decode(rec, cfg.Managed)
	})
	if err != nil {
		return nil, err
	}
	for a, ta := range cfg.Types {
		for b := a; b < len(cfg.Types); b++ {
			tbl.SetRCut(uint32(a), uint32(b), cfg.RCutFor(ta, cfg.Types[b]))
		}
	}
	return tbl, nil
}
