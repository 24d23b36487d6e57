package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/logger"
	"github.com/san-kum/pairsim/internal/metrics"
	"github.com/san-kum/pairsim/internal/nlist"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/sim"
)

// Result is one configured force evaluation.
type Result struct {
	Config      *config.Config
	System      *sim.System
	List        *nlist.List
	Accumulator *sim.Accumulator
	Stats       compute.Stats
	Summary     metrics.Summary
	Records     map[string]params.Record
	Started     time.Time
}

type Experiment struct {
	cfg *config.Config
	reg *Registry
	log *slog.Logger
}

func New(cfg *config.Config, reg *Registry, log *slog.Logger) *Experiment {
	return &Experiment{cfg: cfg, reg: reg, log: logger.Or(log)}
}

// Prepare generates the particle system and neighbor list described by
// the configuration.
func (e *Experiment) Prepare() (*sim.System, *nlist.List, error) {
	sys, err := sim.Build(e.cfg.Setup())
	if err != nil {
		return nil, nil, fmt.Errorf("system: %w", err)
	}
	mode, err := nlist.ParseMode(e.cfg.Compute.NeighborList)
	if err != nil {
		return nil, nil, err
	}
	list, err := nlist.Build(sys, e.cfg.MaxRCut(), e.cfg.Compute.Buffer, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("neighbor list: %w", err)
	}
	e.log.Debug("system prepared", "particles", sys.N(), "box", sys.Box.String(), "pairs", list.NumPairs(), "mode", mode.String())
	return sys, list, nil
}

// Options translates the compute section of the configuration.
func (e *Experiment) Options() (compute.Options, error) {
	backend, err := compute.ParseBackend(e.cfg.Compute.Backend)
	if err != nil {
		return compute.Options{}, err
	}
	return compute.Options{
		Backend:         backend,
		Shift:           e.cfg.Shift,
		Workers:         e.cfg.Compute.Workers,
		ThreadsPerGroup: e.cfg.Compute.ThreadsPerGroup,
		Groups:          e.cfg.Compute.Groups,
		SharedBytes:     e.cfg.Compute.SharedBytes,
		StrictShared:    e.cfg.Compute.StrictShared,
		Logger:          e.log,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
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

	started := time.Now()
	out, err := fam.Run(ctx, e.cfg, sys, list, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Config:      e.cfg,
		System:      sys,
		List:        list,
		Accumulator: out.Accumulator,
		Stats:       out.Stats,
		Summary:     metrics.Summarize(out.Accumulator, sys.Box.Volume(), out.TailEnergy, out.TailPressure),
		Records:     out.Records,
		Started:     started,
	}
	e.log.Info("force evaluation finished",
		"family", fam.Name, "backend", string(out.Stats.Backend),
		"energy", res.Summary.TotalEnergy, "evaluated", out.Stats.Evaluated, "elapsed", out.Stats.Elapsed)
	return res, nil
}
