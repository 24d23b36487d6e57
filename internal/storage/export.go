package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData bundles a run's metadata with its per-particle rows.
type ExportData struct {
	Run       RunMetadata   `json:"run"`
	Particles []ParticleRow `json:"particles"`
}

// Export collects everything stored for runID.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.LoadParticles(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Run: *meta, Particles: rows}, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
