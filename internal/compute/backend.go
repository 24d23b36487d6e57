package compute

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// Backend names an execution model for the force driver.
type Backend string

const (
	BackendAuto  Backend = "auto"
	BackendCPU   Backend = "cpu"
	BackendGroup Backend = "group"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendAuto, "":
		return BackendAuto, nil
	case BackendCPU:
		return BackendCPU, nil
	case BackendGroup:
		return BackendGroup, nil
	default:
		return "", fmt.Errorf("unknown backend: %s", s)
	}
}

// AutoSelectBackend picks the group backend when there are enough
// particles to keep several groups busy, else the host worker pool.
func AutoSelectBackend(numParticles, threadsPerGroup int) Backend {
	if threadsPerGroup < 1 {
		threadsPerGroup = DefaultThreadsPerGroup
	}
	if runtime.NumCPU() > 1 && numParticles >= 4*threadsPerGroup*runtime.NumCPU() {
		return BackendGroup
	}
	return BackendCPU
}

const (
	DefaultChunkSize       = 256
	DefaultThreadsPerGroup = 32
	DefaultSharedBytes     = 48 << 10
)

// Options configure one force computation. Zero values select defaults.
type Options struct {
	Backend Backend
	Shift   bool

	// Host backend.
	Workers   int
	ChunkSize int

	// Group backend.
	ThreadsPerGroup int
	Groups          int
	SharedBytes     int
	// StrictShared fails with dynamo.ErrArenaExhausted instead of leaving
	// entries that do not fit in bulk memory.
	StrictShared bool

	Logger *slog.Logger
}

func (o Options) withDefaults(n int) Options {
	if o.Backend == "" {
		o.Backend = BackendAuto
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ThreadsPerGroup <= 0 {
		o.ThreadsPerGroup = DefaultThreadsPerGroup
	}
	if o.SharedBytes <= 0 {
		o.SharedBytes = DefaultSharedBytes
	}
	if o.Backend == BackendAuto {
		o.Backend = AutoSelectBackend(n, o.ThreadsPerGroup)
	}
	if o.Groups <= 0 {
		o.Groups = (n + o.ThreadsPerGroup - 1) / o.ThreadsPerGroup
		if o.Groups < 1 {
			o.Groups = 1
		}
	}
	return o
}

// Stats describe one finished force computation.
type Stats struct {
	Family    string        `json:"family"`
	Backend   Backend       `json:"backend"`
	Particles int           `json:"particles"`
	Pairs     int           `json:"pairs"`
	Evaluated int           `json:"evaluated"`
	Skipped   int           `json:"skipped"`
	Workers   int           `json:"workers,omitempty"`
	Groups    int           `json:"groups,omitempty"`
	Threads   int           `json:"threads_per_group,omitempty"`
	Staged    int           `json:"staged_bytes,omitempty"`
	Loads     int           `json:"loads,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}
