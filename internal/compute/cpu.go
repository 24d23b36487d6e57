package compute

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pairsim/internal/nlist"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/sim"
)

// runHost splits particles into contiguous ranges, one goroutine each.
// With a full list a worker only writes the particles it owns. With a half
// list partner updates land in a private pooled buffer that is reduced
// into the result once all workers are done.
func runHost[E any, P any, PE pair.Ptr[E, P]](ctx context.Context, k *kernel[E, P, PE], entries []P, list *nlist.List, opts Options, st *Stats) (*sim.Accumulator, error) {
	n := k.sys.N()
	acc := sim.NewAccumulator(n)
	if n == 0 {
		return acc, nil
	}

	workers := opts.Workers
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers
	half := list.Mode == nlist.Half

	pool := sim.NewBufferPool(n)
	locals := make([]*sim.Accumulator, workers)
	var evaluated, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		out := acc
		if half {
			out = pool.Get()
			locals[w] = out
		}

		g.Go(func() error {
			var ev, sk int64
			defer func() {
				evaluated.Add(ev)
				skipped.Add(sk)
			}()

			for lo := start; lo < end; lo += opts.ChunkSize {
				if err := gctx.Err(); err != nil {
					return err
				}
				hi := min(lo+opts.ChunkSize, end)
				for i := lo; i < hi; i++ {
					for _, nb := range list.Of(i) {
						j := int(nb)
						dx, f, u, ok := k.eval(entries, i, j)
						if !ok {
							sk++
							continue
						}
						ev++
						out.AddPair(i, dx, f, u)
						if half {
							out.AddPair(j, dx.Scale(-1), f, u)
						}
					}
				}
			}
			return nil
		})
	}

	err := g.Wait()
	for _, l := range locals {
		if l == nil {
			continue
		}
		if err == nil {
			acc.Merge(l)
		}
		pool.Put(l)
	}
	if err != nil {
		return nil, err
	}

	st.Workers = workers
	st.Evaluated = int(evaluated.Load())
	st.Skipped = int(skipped.Load())
	return acc, nil
}
