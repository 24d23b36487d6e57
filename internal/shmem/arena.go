package shmem

// Align is the byte alignment of every reservation. It matches the
// double-precision requirement of the staged parameter blocks.
const Align = 16

// ScalarSize is the size in bytes of one staged scalar.
const ScalarSize = 8

// Arena is the fast memory of one execution group. It is a fixed scalar
// buffer; offsets handed out by a Cursor index into it.
type Arena struct {
	words []float64
}

// NewArena allocates an arena of at least bytes, rounded up to Align.
func NewArena(bytes int) *Arena {
	return &Arena{words: make([]float64, alignUp(bytes)/ScalarSize)}
}

// Size returns the arena capacity in bytes.
func (a *Arena) Size() int {
	return len(a.words) * ScalarSize
}

// CursorAt returns a cursor over the region [offset, offset+available).
// Loads of one entry use it to replay the reservations that the sizing
// pass recorded at that offset.
func (a *Arena) CursorAt(offset, available int) *Cursor {
	if offset+available > a.Size() {
		available = a.Size() - offset
	}
	if available < 0 {
		available = 0
	}
	return &Cursor{arena: a, Offset: offset, Available: available}
}

// SizingCursor returns a cursor with no backing memory. Reservations only
// advance the offset; it is used to measure the allocate phase.
func SizingCursor(limit int) *Cursor {
	return &Cursor{Available: limit}
}

// Cursor is the (pointer, remaining bytes) pair threaded through the
// allocate and load phases. Both phases must reserve the same sequence of
// sizes so that a load finds the bytes its allocate reserved.
type Cursor struct {
	arena     *Arena
	Offset    int
	Available int
}

// Reserve claims n scalars. It returns the backing slice (nil for a sizing
// cursor) and false when fewer than the required bytes remain, in which
// case nothing is claimed and the caller keeps using bulk memory.
func (c *Cursor) Reserve(n int) ([]float64, bool) {
	start := alignUp(c.Offset)
	pad := start - c.Offset
	size := n * ScalarSize
	if pad+size > c.Available {
		return nil, false
	}
	c.Offset = start + size
	c.Available -= pad + size
	if c.arena == nil {
		return nil, true
	}
	off := start / ScalarSize
	return c.arena.words[off : off+n : off+n], true
}

// Used returns the number of bytes consumed so far, including padding.
func (c *Cursor) Used() int {
	return c.Offset
}

func alignUp(n int) int {
	return (n + Align - 1) &^ (Align - 1)
}
