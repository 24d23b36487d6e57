package sim

import "sync"

// BufferPool recycles accumulators of one particle count. Workers that
// scatter into a partner particle draw a private buffer from it.
type BufferPool struct {
	pool sync.Pool
	size int
}

func NewBufferPool(n int) *BufferPool {
	return &BufferPool{
		size: n,
		pool: sync.Pool{
			New: func() interface{} {
				return NewAccumulator(n)
			},
		},
	}
}

func (p *BufferPool) Size() int { return p.size }

func (p *BufferPool) Get() *Accumulator {
	return p.pool.Get().(*Accumulator)
}

// Put zeroes the buffer and returns it. Buffers of the wrong size are dropped.
func (p *BufferPool) Put(a *Accumulator) {
	if a == nil || a.Len() != p.size {
		return
	}
	a.Reset()
	p.pool.Put(a)
}
