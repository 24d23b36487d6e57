package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/sim"
)

const (
	DefaultFamily    = "lj"
	DefaultRCut      = 2.5
	DefaultBuffer    = 0.3
	DefaultParticles = 512
	DefaultBox       = 9.0
)

type Config struct {
	Family         string                    `yaml:"family" validate:"required"`
	Types          []string                  `yaml:"types" validate:"required,min=1,dive,required"`
	PairParams     map[string]map[string]any `yaml:"pair_params" validate:"required,min=1"`
	RCut           map[string]float64        `yaml:"r_cut,omitempty" validate:"omitempty,dive,gt=0"`
	DefaultRCut    float64                   `yaml:"default_r_cut" validate:"gt=0"`
	Shift          bool                      `yaml:"shift"`
	TailCorrection bool                      `yaml:"tail_correction"`
	Managed        bool                      `yaml:"managed"`
	Compute        ComputeConfig             `yaml:"compute"`
	System         SystemConfig              `yaml:"system"`
}

type ComputeConfig struct {
	Backend         string  `yaml:"backend" validate:"omitempty,oneof=auto cpu group"`
	NeighborList    string  `yaml:"neighbor_list" validate:"omitempty,oneof=half full"`
	Buffer          float64 `yaml:"buffer" validate:"gte=0"`
	Workers         int     `yaml:"workers" validate:"gte=0"`
	ThreadsPerGroup int     `yaml:"threads_per_group" validate:"gte=0,lte=1024"`
	Groups          int     `yaml:"groups" validate:"gte=0"`
	SharedBytes     int     `yaml:"shared_bytes" validate:"gte=0"`
	StrictShared    bool    `yaml:"strict_shared"`
}

type SystemConfig struct {
	N              int       `yaml:"n" validate:"gt=0"`
	Box            float64   `yaml:"box" validate:"gt=0"`
	Layout         string    `yaml:"layout" validate:"omitempty,oneof=lattice random"`
	Jitter         float64   `yaml:"jitter" validate:"gte=0,lte=1"`
	Charges        []float64 `yaml:"charges,omitempty"`
	Diameters      []float64 `yaml:"diameters,omitempty" validate:"omitempty,dive,gt=0"`
	Polydispersity float64   `yaml:"polydispersity" validate:"gte=0,lt=1"`
	Seed           int64     `yaml:"seed"`
}

var validate = validator.New()

func DefaultConfig() *Config {
	return &Config{
		Family: DefaultFamily,
		Types:  []string{"A"},
		PairParams: map[string]map[string]any{
			"A,A": {"epsilon": 1.0, "sigma": 1.0},
		},
		DefaultRCut:    DefaultRCut,
		Shift:          true,
		TailCorrection: false,
		Compute: ComputeConfig{
			Backend:      "auto",
			NeighborList: "half",
			Buffer:       DefaultBuffer,
		},
		System: SystemConfig{
			N:      DefaultParticles,
			Box:    DefaultBox,
			Layout: sim.LayoutLattice,
			Jitter: 0.1,
			Seed:   1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.PairParams = nil
	cfg.Types = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks struct tags, then the cross-field rules the tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrConfig, err)
	}

	known := make(map[string]bool, len(c.Types))
	for _, t := range c.Types {
		if known[t] {
			return &dynamo.ConfigError{Family: c.Family, Key: "types", Reason: fmt.Sprintf("duplicate type %q", t)}
		}
		known[t] = true
	}
	for _, section := range []map[string]bool{keySet(c.PairParams), keySetF(c.RCut)} {
		seen := make(map[string]string, len(section))
		for _, key := range sortedKeys(section) {
			a, b, err := params.SplitPairKey(key)
			if err != nil {
				return &dynamo.ConfigError{Family: c.Family, Key: key, Reason: err.Error()}
			}
			if !known[a] || !known[b] {
				return &dynamo.ConfigError{Family: c.Family, Key: key, Reason: "pair names an unknown type"}
			}
			if a > b {
				a, b = b, a
			}
			canon := params.PairKey(a, b)
			if prev, dup := seen[canon]; dup {
				return &dynamo.ConfigError{Family: c.Family, Key: key, Reason: fmt.Sprintf("same type pair as %q", prev)}
			}
			seen[canon] = key
		}
	}
	if n := len(c.System.Charges); n != 0 && n != len(c.Types) {
		return &dynamo.ConfigError{Family: c.Family, Key: "system.charges", Reason: fmt.Sprintf("need one charge per type, got %d for %d types", n, len(c.Types))}
	}
	if n := len(c.System.Diameters); n != 0 && n != len(c.Types) {
		return &dynamo.ConfigError{Family: c.Family, Key: "system.diameters", Reason: fmt.Sprintf("need one diameter per type, got %d for %d types", n, len(c.Types))}
	}
	return nil
}

// Records returns the pair parameters as parameter-store records.
func (c *Config) Records() map[string]params.Record {
	out := make(map[string]params.Record, len(c.PairParams))
	for k, v := range c.PairParams {
		out[k] = params.Record(v)
	}
	return out
}

// RCutFor returns the cutoff of a type pair, in either key order, falling
// back to the default.
func (c *Config) RCutFor(a, b string) float64 {
	if r, ok := c.RCut[params.PairKey(a, b)]; ok {
		return r
	}
	if r, ok := c.RCut[params.PairKey(b, a)]; ok {
		return r
	}
	for key, r := range c.RCut {
		ka, kb, err := params.SplitPairKey(key)
		if err != nil {
			continue
		}
		if (ka == a && kb == b) || (ka == b && kb == a) {
			return r
		}
	}
	return c.DefaultRCut
}

// MaxRCut is the largest cutoff over all pairs.
func (c *Config) MaxRCut() float64 {
	m := c.DefaultRCut
	for _, r := range c.RCut {
		if r > m {
			m = r
		}
	}
	return m
}

func (c *Config) Setup() sim.Setup {
	return sim.Setup{
		N:              c.System.N,
		Box:            dynamo.NewCubicBox(c.System.Box),
		Layout:         c.System.Layout,
		NumTypes:       len(c.Types),
		Charges:        c.System.Charges,
		Diameters:      c.System.Diameters,
		Polydispersity: c.System.Polydispersity,
		Jitter:         c.System.Jitter,
		Seed:           c.System.Seed,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config: marshal: %v", err))
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: unmarshal: %v", err))
	}
	return out
}

func keySet(m map[string]map[string]any) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func keySetF(m map[string]float64) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
