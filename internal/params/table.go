package params

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/shmem"
)

// Stager is the two-phase shared-memory protocol every parameter type
// implements. Types without out-of-line data implement both as no-ops.
type Stager interface {
	AllocateShared(c *shmem.Cursor)
	LoadShared(c *shmem.Cursor)
}

// Table stores one parameter set per unordered pair of particle types,
// plus the squared cutoff for that pair. Lookups are symmetric.
//
// The table is read-only while forces are computed. Writers take the
// write lock and must only run between steps.
type Table[P any] struct {
	mu      sync.RWMutex
	names   []string
	entries []P
	rcutsq  []float64
	set     []bool
}

func NewTable[P any](typeNames []string) *Table[P] {
	n := len(typeNames)
	size := n * (n + 1) / 2
	names := make([]string, n)
	copy(names, typeNames)
	return &Table[P]{
		names:   names,
		entries: make([]P, size),
		rcutsq:  make([]float64, size),
		set:     make([]bool, size),
	}
}

func (t *Table[P]) NumTypes() int { return len(t.names) }

// Len returns the number of unordered type pairs.
func (t *Table[P]) Len() int { return len(t.entries) }

func (t *Table[P]) TypeNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Table[P]) TypeIndex(name string) (uint32, error) {
	for i, n := range t.names {
		if n == name {
			return uint32(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownType, name)
}

// Index maps an unordered type pair to its slot. Index(a, b) == Index(b, a).
func (t *Table[P]) Index(a, b uint32) int {
	if a > b {
		a, b = b, a
	}
	n := uint32(len(t.names))
	return int(a*n - a*(a+1)/2 + b)
}

func (t *Table[P]) Set(a, b uint32, p P) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.Index(a, b)
	t.entries[i] = p
	t.set[i] = true
}

// Get returns the parameters for a type pair. The pointer aliases table
// storage and must not outlive the next write.
func (t *Table[P]) Get(a, b uint32) *P {
	return &t.entries[t.Index(a, b)]
}

func (t *Table[P]) IsSet(a, b uint32) bool {
	return t.set[t.Index(a, b)]
}

func (t *Table[P]) SetRCut(a, b uint32, rcut float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rcutsq[t.Index(a, b)] = rcut * rcut
}

func (t *Table[P]) RCutSq(a, b uint32) float64 {
	return t.rcutsq[t.Index(a, b)]
}

// MaxRCut returns the largest cutoff over all pairs.
func (t *Table[P]) MaxRCut() float64 {
	m := 0.0
	for _, r := range t.rcutsq {
		if r > m {
			m = r
		}
	}
	return math.Sqrt(m)
}

// Entries exposes the slot-ordered parameter slice for staging copies.
func (t *Table[P]) Entries() []P { return t.entries }

// RCutSqs exposes the slot-ordered squared cutoffs.
func (t *Table[P]) RCutSqs() []float64 { return t.rcutsq }

// RLock holds the table read-only for the duration of a force computation.
func (t *Table[P]) RLock()   { t.mu.RLock() }
func (t *Table[P]) RUnlock() { t.mu.RUnlock() }

// Validate reports the first type pair with no parameters.
func (t *Table[P]) Validate(family string) error {
	for a := range t.names {
		for b := a; b < len(t.names); b++ {
			if !t.set[t.Index(uint32(a), uint32(b))] {
				return &dynamo.ConfigError{Family: family, Key: PairKey(t.names[a], t.names[b]), Reason: "no parameters set for type pair"}
			}
		}
	}
	return nil
}

// Records serializes every set entry keyed by PairKey.
func (t *Table[P]) Records(encode func(*P) Record) map[string]Record {
	out := make(map[string]Record)
	for a := range t.names {
		for b := a; b < len(t.names); b++ {
			i := t.Index(uint32(a), uint32(b))
			if t.set[i] {
				out[PairKey(t.names[a], t.names[b])] = encode(&t.entries[i])
			}
		}
	}
	return out
}

// FromRecords builds a table from PairKey-keyed records. Every type pair
// must be covered exactly once, in either order.
func FromRecords[P any](family string, typeNames []string, recs map[string]Record, decode func(Record) (P, error)) (*Table[P], error) {
	t := NewTable[P](typeNames)

	keys := make([]string, 0, len(recs))
	for k := range recs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		a, b, err := SplitPairKey(key)
		if err != nil {
			return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: err.Error()}
		}
		ia, err := t.TypeIndex(a)
		if err != nil {
			return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: err.Error()}
		}
		ib, err := t.TypeIndex(b)
		if err != nil {
			return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: err.Error()}
		}
		if t.IsSet(ia, ib) {
			return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: "duplicate parameters for type pair"}
		}
		p, err := decode(recs[key])
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", key, err)
		}
		t.Set(ia, ib, p)
	}

	if err := t.Validate(family); err != nil {
		return nil, err
	}
	return t, nil
}

// PairKey is the canonical "A,B" key of a type pair.
func PairKey(a, b string) string {
	return a + "," + b
}

func SplitPairKey(key string) (string, string, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("pair key %q must be \"A,B\"", key)
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return "", "", fmt.Errorf("pair key %q has an empty type name", key)
	}
	return a, b, nil
}
