package compute

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/metrics"
	"github.com/san-kum/pairsim/internal/nlist"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/shmem"
	"github.com/san-kum/pairsim/internal/sim"
)

// span is the arena region the sizing pass assigned to one table entry.
type span struct {
	offset int
	size   int
}

// stagingLayout runs the allocate phase once over every entry and records
// where each entry's reservations start and how many bytes they took.
// Every group replays the same layout, so it is computed once per call.
// need is what the table would take with no limit.
func stagingLayout[P any, PP pair.ParamPtr[P]](entries []P, limit int) (spans []span, total, need int) {
	c := shmem.SizingCursor(limit)
	unbounded := shmem.SizingCursor(math.MaxInt)
	spans = make([]span, len(entries))
	for s := range entries {
		start := c.Used()
		probe := entries[s]
		PP(&probe).AllocateShared(c)
		PP(&probe).AllocateShared(unbounded)
		spans[s] = span{offset: start, size: c.Used() - start}
	}
	return spans, c.Used(), unbounded.Used()
}

type managed interface {
	Managed() bool
}

// runGroups emulates a wide-SIMT launch. Particles are dealt to
// Groups × ThreadsPerGroup threads with a grid-stride loop. Each group
// copies the parameter table, stages out-of-line data into its own arena
// (each thread loading a strided subset of entries), and waits on a
// barrier before any thread evaluates a pair. Threads check for
// cancellation every ChunkSize particles they visit.
func runGroups[E any, P any, PE pair.Ptr[E, P], PP pair.ParamPtr[P]](ctx context.Context, k *kernel[E, P, PE], entries []P, list *nlist.List, opts Options, log *slog.Logger, st *Stats) (*sim.Accumulator, error) {
	n := k.sys.N()
	threads := opts.ThreadsPerGroup
	groups := opts.Groups
	half := list.Mode == nlist.Half

	spans, total, need := stagingLayout[P, PP](entries, opts.SharedBytes)
	log.Debug("staging layout", "entries", len(entries), "bytes", total, "need", need, "limit", opts.SharedBytes)
	if need > total {
		if opts.StrictShared {
			return nil, fmt.Errorf("%w: table needs %d bytes, limit is %d", dynamo.ErrArenaExhausted, need, opts.SharedBytes)
		}
		log.Debug("arena too small, some entries stay in bulk memory", "need", need, "limit", opts.SharedBytes)
	}

	unmanaged := false
	for s := range entries {
		if m, ok := any(entries[s]).(managed); ok && !m.Managed() {
			unmanaged = true
			break
		}
	}
	if unmanaged {
		log.Warn("parameter table is not in managed memory; groups stage from host memory")
		metrics.RecordUnmanaged()
	}

	out := newAtomicAccumulator(n)
	var evaluated, skipped, loads atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for grp := 0; grp < groups; grp++ {
		grp := grp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			local := make([]P, len(entries))
			copy(local, entries)
			arena := shmem.NewArena(total)
			barrier := shmem.NewBarrier(threads)

			var wg sync.WaitGroup
			wg.Add(threads)
			for t := 0; t < threads; t++ {
				t := t
				go func() {
					defer wg.Done()

					var ld int64
					for s := t; s < len(local); s += threads {
						PP(&local[s]).LoadShared(arena.CursorAt(spans[s].offset, spans[s].size))
						ld++
					}
					loads.Add(ld)

					barrier.Wait()

					var ev, sk int64
					visited := 0
					for i := grp*threads + t; i < n; i += groups * threads {
						if visited%opts.ChunkSize == 0 && gctx.Err() != nil {
							break
						}
						visited++
						for _, nb := range list.Of(i) {
							j := int(nb)
							dx, f, u, ok := k.eval(local, i, j)
							if !ok {
								sk++
								continue
							}
							ev++
							out.addPair(i, dx, f, u)
							if half {
								out.addPair(j, dx.Scale(-1), f, u)
							}
						}
					}
					evaluated.Add(ev)
					skipped.Add(sk)
				}()
			}
			wg.Wait()
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.Groups = groups
	st.Threads = threads
	st.Staged = total
	st.Loads = int(loads.Load())
	st.Evaluated = int(evaluated.Load())
	st.Skipped = int(skipped.Load())
	metrics.RecordStaging(st.Family, total, st.Loads)
	return out.result(), nil
}
