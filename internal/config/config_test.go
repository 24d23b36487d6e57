package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pairsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Family != "lj" {
		t.Errorf("expected family lj, got %s", cfg.Family)
	}
	if cfg.DefaultRCut <= 0 {
		t.Error("default cutoff should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

const morseYAML = `
family: morse
types: [A, B]
pair_params:
  A,A: {D0: 1.0, alpha: 3, r0: 1.1, poly: 0}
  A,B: {D0: 1.5, alpha: 2.5, r0: 1.0, poly: 0}
  B,B: {D0: 0.8, alpha: 4, r0: 1.2, poly: 0}
r_cut:
  B,A: 2.0
default_r_cut: 2.5
shift: true
compute:
  backend: group
  threads_per_group: 16
system:
  n: 64
  box: 6
  diameters: [1.0, 1.2]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(morseYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Family != "morse" || len(cfg.Types) != 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.PairParams) != 3 {
		t.Errorf("got %d pair records, want 3", len(cfg.PairParams))
	}
	if got := cfg.RCutFor("A", "B"); got != 2.0 {
		t.Errorf("RCutFor(A, B) = %v, want 2", got)
	}
	if got := cfg.RCutFor("A", "A"); got != 2.5 {
		t.Errorf("RCutFor(A, A) = %v, want 2.5", got)
	}
	if cfg.Compute.ThreadsPerGroup != 16 || cfg.Compute.Buffer != DefaultBuffer {
		t.Errorf("compute section not merged with defaults: %+v", cfg.Compute)
	}
	if cfg.System.Layout != "lattice" {
		t.Errorf("layout = %q, want default lattice", cfg.System.Layout)
	}

	rec := cfg.Records()["A,A"]
	if rec["alpha"] != 3 {
		t.Errorf("alpha = %v (%T), want int 3", rec["alpha"], rec["alpha"])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "family: [unclosed"},
		{"empty family", "family: ''\ntypes: [A]\npair_params: {'A,A': {x: 1}}"},
		{"no types", "family: lj\npair_params: {'A,A': {x: 1}}"},
		{"unknown pair type", "family: lj\ntypes: [A]\npair_params: {'A,B': {x: 1}}"},
		{"bad pair key", "family: lj\ntypes: [A]\npair_params: {AA: {x: 1}}"},
		{"negative cutoff", "family: lj\ntypes: [A]\npair_params: {'A,A': {x: 1}}\nr_cut: {'A,A': -1}"},
		{"bad backend", "family: lj\ntypes: [A]\npair_params: {'A,A': {x: 1}}\ncompute: {backend: quantum}"},
		{"charges per type", "family: ewald\ntypes: [A, B]\npair_params: {'A,A': {x: 1}}\nsystem: {charges: [1]}"},
		{"duplicate type", "family: lj\ntypes: [A, A]\npair_params: {'A,A': {x: 1}}"},
		{"pair given twice", "family: lj\ntypes: [A, B]\npair_params: {'A,B': {x: 1}, 'B,A': {x: 9}}"},
		{"cutoff given twice", "family: lj\ntypes: [A, B]\npair_params: {'A,B': {x: 1}}\nr_cut: {'A,B': 1.2, 'B, A': 2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, dynamo.ErrConfig) {
				t.Errorf("error %v does not wrap ErrConfig", err)
			}
		})
	}
}

func TestRCutForSpacedKey(t *testing.T) {
	cfg, err := Parse([]byte("family: morse\ntypes: [A, B]\npair_params: {'A,B': {x: 1}}\nr_cut: {'A, B': 1.2, ' B ,B': 1.8}"))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		a, b string
		want float64
	}{
		{"A", "B", 1.2},
		{"B", "A", 1.2},
		{"B", "B", 1.8},
		{"A", "A", DefaultRCut},
	}
	for _, tt := range tests {
		if got := cfg.RCutFor(tt.a, tt.b); got != tt.want {
			t.Errorf("RCutFor(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg, err := Parse([]byte(morseYAML))
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Family != cfg.Family || back.RCutFor("A", "B") != 2.0 || back.System.N != 64 {
		t.Errorf("round trip changed config: %+v", back)
	}
	if len(back.System.Diameters) != 2 || back.System.Diameters[1] != 1.2 {
		t.Errorf("diameters = %v", back.System.Diameters)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want ErrNotExist", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, family := range ListFamilies() {
		for _, name := range ListPresets(family) {
			cfg := GetPreset(family, name)
			if cfg == nil {
				t.Fatalf("%s/%s: nil preset", family, name)
			}
			if cfg.Family != family {
				t.Errorf("%s/%s: family %q", family, name, cfg.Family)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", family, name, err)
			}
			if rl := cfg.MaxRCut() + cfg.Compute.Buffer; rl > cfg.System.Box/2 {
				t.Errorf("%s/%s: interaction range %v exceeds half box %v", family, name, rl, cfg.System.Box/2)
			}
		}
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("lj", "fluid")
	a.System.N = 1
	a.PairParams["A,A"]["epsilon"] = 99.0

	b := GetPreset("lj", "fluid")
	if b.System.N == 1 || b.PairParams["A,A"]["epsilon"] == 99.0 {
		t.Error("GetPreset must not hand out shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("lj", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "fluid") != nil {
		t.Error("expected nil for nonexistent family")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil list for nonexistent family")
	}
}
