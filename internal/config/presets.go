package config

import (
	"math"
	"sort"
)

var Presets = map[string]map[string]*Config{
	"lj": {
		"fluid": {
			Family: "lj", Types: []string{"A"},
			PairParams:  map[string]map[string]any{"A,A": {"epsilon": 1.0, "sigma": 1.0}},
			DefaultRCut: 2.5, Shift: true, TailCorrection: true,
			Compute: ComputeConfig{Backend: "auto", NeighborList: "half", Buffer: 0.3},
			System:  SystemConfig{N: 512, Box: 8.5, Layout: "lattice", Jitter: 0.1, Seed: 1},
		},
		"binary": {
			Family: "lj", Types: []string{"A", "B"},
			PairParams: map[string]map[string]any{
				"A,A": {"epsilon": 1.0, "sigma": 1.0},
				"A,B": {"epsilon": 1.5, "sigma": 0.8},
				"B,B": {"epsilon": 0.5, "sigma": 0.88},
			},
			RCut:        map[string]float64{"A,B": 2.0},
			DefaultRCut: 2.5, Shift: true, TailCorrection: true,
			Compute: ComputeConfig{Backend: "auto", NeighborList: "half", Buffer: 0.3},
			System:  SystemConfig{N: 1000, Box: 9.4, Layout: "lattice", Jitter: 0.2, Seed: 1},
		},
	},
	"morse": {
		"gel": {
			Family: "morse", Types: []string{"A"},
			PairParams:  map[string]map[string]any{"A,A": {"D0": 8.0, "alpha": 30.0, "r0": 1.0, "poly": 0.05}},
			DefaultRCut: 1.2, Shift: true,
			Compute: ComputeConfig{Backend: "group", NeighborList: "half", Buffer: 0.1, ThreadsPerGroup: 32},
			System:  SystemConfig{N: 1000, Box: 11, Layout: "lattice", Jitter: 0.2, Diameters: []float64{1.0}, Polydispersity: 0.05, Seed: 1},
		},
		"mono": {
			Family: "morse", Types: []string{"A"},
			PairParams:  map[string]map[string]any{"A,A": {"D0": 1.0, "alpha": 3.0, "r0": 1.1, "poly": 0.0}},
			DefaultRCut: 2.5, Shift: true,
			Compute: ComputeConfig{Backend: "auto", NeighborList: "half", Buffer: 0.3},
			System:  SystemConfig{N: 512, Box: 9, Layout: "lattice", Jitter: 0.1, Seed: 1},
		},
	},
	"ewald": {
		"electrolyte": {
			Family: "ewald", Types: []string{"Na", "Cl"},
			PairParams: map[string]map[string]any{
				"Na,Na": {"kappa": 1.2, "alpha": 0.0},
				"Na,Cl": {"kappa": 1.2, "alpha": 0.0},
				"Cl,Cl": {"kappa": 1.2, "alpha": 0.0},
			},
			DefaultRCut: 3.0, Shift: true,
			Compute: ComputeConfig{Backend: "auto", NeighborList: "half", Buffer: 0.3},
			System:  SystemConfig{N: 512, Box: 10, Layout: "lattice", Jitter: 0.05, Charges: []float64{1, -1}, Seed: 1},
		},
		"screened": {
			Family: "ewald", Types: []string{"P", "N"},
			PairParams: map[string]map[string]any{
				"P,P": {"kappa": 1.0, "alpha": 0.5},
				"P,N": {"kappa": 1.0, "alpha": 0.5},
				"N,N": {"kappa": 1.0, "alpha": 0.5},
			},
			DefaultRCut: 3.0, Shift: true,
			Compute: ComputeConfig{Backend: "auto", NeighborList: "full", Buffer: 0.3},
			System:  SystemConfig{N: 343, Box: 9, Layout: "lattice", Charges: []float64{2, -2}, Seed: 1},
		},
	},
	"fourier": {
		"default": {
			Family: "fourier", Types: []string{"A"},
			PairParams: map[string]map[string]any{
				"A,A": {"a": []any{0.08, -0.03, 0.01}, "b": []any{-0.05, 0.02, 0.0}},
			},
			DefaultRCut: 3.0, Shift: true,
			Compute: ComputeConfig{Backend: "auto", NeighborList: "half", Buffer: 0.3},
			System:  SystemConfig{N: 343, Box: 8.5, Layout: "lattice", Jitter: 0.1, Seed: 1},
		},
	},
	"table": {
		"soft": {
			Family: "table", Types: []string{"A"},
			PairParams:  map[string]map[string]any{"A,A": softTable(0.2, 1.5, 128)},
			DefaultRCut: 1.5, Shift: false,
			Compute: ComputeConfig{Backend: "group", NeighborList: "half", Buffer: 0.2},
			System:  SystemConfig{N: 512, Box: 8, Layout: "random", Seed: 1},
		},
	},
}

// softTable tabulates the harmonic soft sphere V = (1 - r/rc)^2 on n
// points from rmin to rc.
func softTable(rmin, rc float64, n int) map[string]any {
	v := make([]any, n)
	f := make([]any, n)
	dr := (rc - rmin) / float64(n-1)
	for i := 0; i < n; i++ {
		x := 1 - (rmin+float64(i)*dr)/rc
		v[i] = math.Max(x, 0) * math.Max(x, 0)
		f[i] = 2 * math.Max(x, 0) / rc
	}
	return map[string]any{"r_min": rmin, "V": v, "F": f}
}

// GetPreset returns a copy of a preset, or nil when none matches.
func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListFamilies() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
