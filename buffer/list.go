package buffer

// List is an ordered collection of byte vectors sized to N, matching a codec
// stage's declared fan-out (§4.2). Stages consume and produce Lists rather
// than single []byte values so that a 1→2 stage like SplitMantissa and a
// 1→1 stage like Zstd share one calling convention.
//
// A List borrows its Buffers from a Pool; Release returns them all at once.
type List struct {
	bufs []*Buffer
	pool *Pool
}

// NewList allocates a List of n Buffers from pool, each starting at the
// pool's default size.
func NewList(pool *Pool, n int) *List {
	bufs := make([]*Buffer, n)
	for i := range bufs {
		bufs[i] = pool.Get()
	}

	return &List{bufs: bufs, pool: pool}
}

// FromBytes wraps existing byte slices as a read-only List (no pool
// ownership; Release is a no-op). Used when a stage's input already exists
// as plain [][]byte, e.g. data read back from chunk storage.
func FromBytes(data ...[]byte) *List {
	bufs := make([]*Buffer, len(data))
	for i, d := range data {
		bufs[i] = &Buffer{B: d}
	}

	return &List{bufs: bufs}
}

// Len returns the number of streams in the list (the fan-out width).
func (l *List) Len() int {
	return len(l.bufs)
}

// At returns the Buffer at position i.
func (l *List) At(i int) *Buffer {
	return l.bufs[i]
}

// Bytes returns the byte slice at position i, the form most stage Encode/
// Decode functions operate on directly.
func (l *List) Bytes(i int) []byte {
	return l.bufs[i].Bytes()
}

// ToBytes materializes the list as a plain [][]byte, copying nothing (the
// slices alias the underlying Buffers). Used at the pipeline/chunk boundary
// where a stage's output becomes the set of streams to hash and store.
func (l *List) ToBytes() [][]byte {
	out := make([][]byte, len(l.bufs))
	for i, b := range l.bufs {
		out[i] = b.Bytes()
	}

	return out
}

// Release returns every owned Buffer to its pool. Lists built with FromBytes
// own nothing and Release is a no-op for them.
func (l *List) Release() {
	if l.pool == nil {
		return
	}
	for _, b := range l.bufs {
		l.pool.Put(b)
	}
	l.bufs = nil
}
