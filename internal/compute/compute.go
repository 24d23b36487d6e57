package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/logger"
	"github.com/san-kum/pairsim/internal/metrics"
	"github.com/san-kum/pairsim/internal/nlist"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/sim"
)

// Compute accumulates the forces, energies and virials of every listed
// pair using evaluator family E.
//
// The table is held read-only for the duration of the call. Capabilities
// of E are resolved once, before any pair is visited, and only the
// declared attributes are fetched per pair.
func Compute[E pair.Traits, P any, PE pair.Ptr[E, P], PP pair.ParamPtr[P]](
	ctx context.Context,
	sys *sim.System,
	list *nlist.List,
	table *params.Table[P],
	opts Options,
) (*sim.Accumulator, Stats, error) {
	family := pair.NameOf[E]()
	caps := pair.CapabilitiesOf[E]()
	opts = opts.withDefaults(sys.N())
	log := logger.Or(opts.Logger).With("family", family, "backend", string(opts.Backend))

	st := Stats{Family: family, Backend: opts.Backend, Particles: sys.N(), Pairs: list.NumPairs()}

	if err := sys.Validate(table.NumTypes()); err != nil {
		metrics.RecordError(family, "config")
		return nil, st, &dynamo.ConfigError{Family: family, Key: "system", Reason: err.Error()}
	}
	if list.NumParticles() != sys.N() {
		metrics.RecordError(family, "config")
		return nil, st, &dynamo.ConfigError{Family: family, Key: "nlist", Reason: fmt.Sprintf("list covers %d particles, system has %d", list.NumParticles(), sys.N())}
	}
	if caps.Charge && sys.Charge == nil {
		metrics.RecordError(family, "config")
		return nil, st, &dynamo.ConfigError{Family: family, Key: "charge", Reason: "family needs per-particle charges"}
	}

	table.RLock()
	defer table.RUnlock()

	if err := table.Validate(family); err != nil {
		metrics.RecordError(family, "config")
		return nil, st, err
	}

	k := &kernel[E, P, PE]{
		sys:    sys,
		table:  table,
		rcutsq: table.RCutSqs(),
		caps:   caps,
		shift:  opts.Shift,
	}

	log.Debug("force computation started",
		"particles", sys.N(), "pairs", list.NumPairs(), "mode", list.Mode.String(),
		"charge", caps.Charge, "diameter", caps.Diameter)

	start := time.Now()
	var acc *sim.Accumulator
	var err error
	switch opts.Backend {
	case BackendCPU:
		acc, err = runHost(ctx, k, table.Entries(), list, opts, &st)
	case BackendGroup:
		acc, err = runGroups[E, P, PE, PP](ctx, k, table.Entries(), list, opts, log, &st)
	default:
		err = fmt.Errorf("unknown backend: %s", opts.Backend)
	}
	st.Elapsed = time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.RecordError(family, "canceled")
			return nil, st, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
		}
		metrics.RecordError(family, "config")
		return nil, st, err
	}

	metrics.RecordCompute(family, string(opts.Backend), st.Evaluated, st.Skipped, st.Elapsed)
	log.Debug("force computation finished",
		"evaluated", st.Evaluated, "skipped", st.Skipped, "elapsed", st.Elapsed)
	return acc, st, nil
}

// kernel evaluates one listed pair. It is shared by both backends; the
// entries slice is either the table storage or a group-local copy.
type kernel[E any, P any, PE pair.Ptr[E, P]] struct {
	sys    *sim.System
	table  *params.Table[P]
	rcutsq []float64
	caps   pair.Capabilities
	shift  bool
}

func (k *kernel[E, P, PE]) eval(entries []P, i, j int) (dynamo.Vec3, float64, float64, bool) {
	sys := k.sys
	dx := sys.Box.MinImage(sys.Positions[i].Sub(sys.Positions[j]))
	ti, tj := sys.Types[i], sys.Types[j]
	slot := k.table.Index(ti, tj)

	var e E
	pe := PE(&e)
	pe.Init(pair.Geometry{
		RSq:     dx.NormSq(),
		Contact: 0.5 * (sys.DiameterOf(i) + sys.DiameterOf(j)),
		Types:   [2]uint32{ti, tj},
		RCutSq:  k.rcutsq[slot],
	}, &entries[slot])

	if k.caps.Charge {
		pe.SetCharge(sys.Charge[i], sys.Charge[j])
	}
	if k.caps.Diameter {
		pe.SetDiameter(sys.DiameterOf(i), sys.DiameterOf(j))
	}
	if k.caps.Tags {
		pe.SetTags(sys.TagOf(i), sys.TagOf(j))
	}
	if k.caps.Positions {
		pe.SetPositions(sys.Positions[i], sys.Positions[j])
	}
	if k.caps.Timestep {
		pe.SetTimestep(sys.Timestep)
	}
	if k.caps.Box {
		pe.SetBox(sys.Box)
	}

	forceDivR, energy, ok := pe.Eval(k.shift)
	return dx, forceDivR, energy, ok
}
