package main

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/experiment"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/params"
)

// pairInput is a single pair record plus the attributes needed to sample it.
type pairInput struct {
	rec   params.Record
	rcut  float64
	attrs compute.PairAttrs
}

// applySets overlays key=value assignments on rec. Values are YAML, so
// lists are written as a=[1,0.5,0].
func applySets(rec params.Record, sets []string) (params.Record, error) {
	out := make(params.Record, len(rec)+len(sets))
	for k, v := range rec {
		out[k] = v
	}
	for _, kv := range sets {
		key, val, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: expected key=value", kv)
		}
		var v any
		if err := yaml.Unmarshal([]byte(val), &v); err != nil {
			return nil, fmt.Errorf("--set %s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// defaultPair picks the first pair of the family's first preset so that
// eval and curve work without any parameters given.
func defaultPair(family string) (pairInput, error) {
	presets := config.ListPresets(family)
	if len(presets) == 0 {
		return pairInput{}, fmt.Errorf("no preset for family %s", family)
	}
	cfg := config.GetPreset(family, presets[0])
	keys := sortedKeys(cfg.PairParams)
	a, b, err := params.SplitPairKey(keys[0])
	if err != nil {
		return pairInput{}, err
	}
	in := pairInput{
		rec:  cfg.PairParams[keys[0]],
		rcut: cfg.RCutFor(a, b),
	}
	in.attrs.Diameter = [2]float64{1, 1}
	in.attrs.Charge = [2]float64{1, -1}
	return in, nil
}

func capabilityString(c pair.Capabilities) string {
	var needs []string
	for _, p := range []struct {
		on   bool
		name string
	}{
		{c.Charge, "charge"},
		{c.Diameter, "diameter"},
		{c.Tags, "tags"},
		{c.Positions, "positions"},
		{c.Timestep, "timestep"},
		{c.Box, "box"},
	} {
		if p.on {
			needs = append(needs, p.name)
		}
	}
	if len(needs) == 0 {
		return "-"
	}
	return strings.Join(needs, ",")
}

// parseBackends turns "cpu,group" into backends, validating each.
func parseBackends(list string) ([]compute.Backend, error) {
	var out []compute.Backend
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		b, err := compute.ParseBackend(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no backend given")
	}
	return out, nil
}

// sampleOne evaluates a single separation.
func sampleOne(fam *experiment.Family, in pairInput, r float64, shift bool) (compute.Sample, error) {
	if r <= 0 || r >= in.rcut {
		return compute.Sample{R: r}, nil
	}
	s, err := fam.Curve(in.rec, r, in.rcut, 1, shift, in.attrs)
	if err != nil {
		return compute.Sample{}, err
	}
	return s[0], nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
