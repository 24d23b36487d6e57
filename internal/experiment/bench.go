package experiment

import (
	"context"
	"time"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/metrics"
	"github.com/san-kum/pairsim/internal/sim"
)

// BenchResult is the timing of repeated force computations on one backend.
type BenchResult struct {
	Backend   compute.Backend `json:"backend"`
	Repeats   int             `json:"repeats"`
	Mean      time.Duration   `json:"mean_ns"`
	Best      time.Duration   `json:"best_ns"`
	Evaluated int             `json:"evaluated"`
	MaxDiff   float64         `json:"max_rel_diff"`
}

// Bench runs the configured evaluation repeats times per backend and
// checks every backend against the first one.
func (e *Experiment) Bench(ctx context.Context, backends []compute.Backend, repeats int) ([]BenchResult, error) {
	if repeats < 1 {
		repeats = 1
	}
	fam, err := e.reg.Get(e.cfg.Family)
	if err != nil {
		return nil, err
	}
	sys, list, err := e.Prepare()
	if err != nil {
		return nil, err
	}
	opts, err := e.Options()
	if err != nil {
		return nil, err
	}

	var reference *sim.Accumulator
	results := make([]BenchResult, 0, len(backends))
	for _, b := range backends {
		o := opts
		o.Backend = b
		br := BenchResult{Backend: b, Repeats: repeats}

		var total time.Duration
		for i := 0; i < repeats; i++ {
			out, err := fam.Run(ctx, e.cfg, sys, list, o)
			if err != nil {
				return nil, err
			}
			el := out.Stats.Elapsed
			total += el
			if br.Best == 0 || el < br.Best {
				br.Best = el
			}
			br.Evaluated = out.Stats.Evaluated
			br.Backend = out.Stats.Backend

			if reference == nil {
				reference = out.Accumulator
			} else if d := metrics.RelativeDifference(reference, out.Accumulator); d > br.MaxDiff {
				br.MaxDiff = d
			}
		}
		br.Mean = total / time.Duration(repeats)
		results = append(results, br)
		e.log.Info("bench", "backend", string(br.Backend), "mean", br.Mean, "best", br.Best)
	}
	return results, nil
}
