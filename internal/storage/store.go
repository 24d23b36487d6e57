package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/experiment"
	"github.com/san-kum/pairsim/internal/metrics"
	"github.com/san-kum/pairsim/internal/params"
)

const (
	metadataFile  = "metadata.json"
	configFile    = "config.yaml"
	particlesFile = "particles.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string                   `json:"id"`
	Family    string                   `json:"family"`
	Label     string                   `json:"label,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
	Seed      int64                    `json:"seed"`
	Types     []string                 `json:"types"`
	Stats     compute.Stats            `json:"stats"`
	Summary   metrics.Summary          `json:"summary"`
	Records   map[string]params.Record `json:"pair_params"`
}

// ParticleRow is one line of particles.csv.
type ParticleRow struct {
	ID     int     `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	FX     float64 `json:"fx"`
	FY     float64 `json:"fy"`
	FZ     float64 `json:"fz"`
	Energy float64 `json:"energy"`
}

var particleHeader = []string{"id", "type", "x", "y", "z", "fx", "fy", "fz", "energy"}

// Save writes res under a fresh run directory and returns its ID. label
// is free text, typically the preset name.
func (s *Store) Save(label string, res *experiment.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	runID := fmt.Sprintf("%s_%s", res.Config.Family, uuid.NewString()[:8])
	runDir := s.Dir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Family:    res.Config.Family,
		Label:     label,
		Timestamp: res.Started,
		Seed:      res.Config.System.Seed,
		Types:     res.Config.Types,
		Stats:     res.Stats,
		Summary:   res.Summary,
		Records:   res.Records,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), res.Config); err != nil {
		return "", err
	}
	if err := writeParticles(filepath.Join(runDir, particlesFile), res); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeParticles(path string, res *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(particleHeader); err != nil {
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', 12, 64) }
	sys, acc := res.System, res.Accumulator
	for i, p := range sys.Positions {
		typ := strconv.Itoa(int(sys.Types[i]))
		if int(sys.Types[i]) < len(res.Config.Types) {
			typ = res.Config.Types[sys.Types[i]]
		}
		force := acc.Force[i]
		row := []string{
			strconv.Itoa(i), typ,
			ff(p.X), ff(p.Y), ff(p.Z),
			ff(force.X), ff(force.Y), ff(force.Z),
			ff(acc.Energy[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration a run was produced with, so it can
// be replayed.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(s.Dir(runID), configFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return cfg, nil
}

func (s *Store) LoadParticles(runID string) ([]ParticleRow, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), particlesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(particleHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []ParticleRow{}, nil
	}

	rows := make([]ParticleRow, 0, len(records)-1)
	for line, rec := range records[1:] {
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", particlesFile, line+2, err)
		}
		var vals [7]float64
		for k := range vals {
			v, err := strconv.ParseFloat(rec[k+2], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", particlesFile, line+2, err)
			}
			vals[k] = v
		}
		rows = append(rows, ParticleRow{
			ID: id, Type: rec[1],
			X: vals[0], Y: vals[1], Z: vals[2],
			FX: vals[3], FY: vals[4], FZ: vals[5],
			Energy: vals[6],
		})
	}
	return rows, nil
}

// Delete removes a run directory.
func (s *Store) Delete(runID string) error {
	dir := s.Dir(runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return os.RemoveAll(dir)
}
