// Package buffer provides the reusable byte-vector primitives codec stages and
// the streaming operator graph are built on: a single growable Buffer, a List
// of N buffers sized to a stage's fan-out, and Pools that let both be reused
// across stage invocations instead of allocated fresh each time.
package buffer

import "io"

// Buffer is a growable byte vector with an amortized growth strategy tuned
// for repeated small appends (one stage writing one element at a time) as
// well as bulk pre-allocated writes (a stage processing a whole column at
// once).
type Buffer struct {
	// B is the underlying byte slice. Exported so codec stages can slice
	// into it directly without an accessor call on the hot path.
	B []byte
}

// Default and ceiling sizes for the two buffer pools tsar uses: one per
// codec-stage invocation (small, many), one per streaming block (larger,
// capped to bound memory under fan-out).
const (
	DefaultSize       = 1024 * 16       // 16KiB, sized for a single blob stage output
	MaxRetainedSize   = 1024 * 128      // 128KiB, buffers larger than this are not pooled
	StreamBlockSize   = 1024 * 128      // 128KiB, the streaming source's default block size (§4.4)
	StreamMaxRetained = 1024 * 1024 * 2 // 2MiB
)

// New creates a Buffer with the given starting capacity.
func New(capacity int) *Buffer {
	return &Buffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the underlying byte slice. The returned slice aliases the
// buffer's memory and must not be retained past the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.B
}

// Reset empties the buffer while retaining its capacity.
func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.B)
}

// Cap returns the buffer's current capacity.
func (b *Buffer) Cap() int {
	return cap(b.B)
}

// Append appends data to the buffer, growing it if necessary.
func (b *Buffer) Append(data []byte) {
	b.B = append(b.B, data...)
}

// Slice returns the sub-slice [start:end) of the buffer. Panics if the range
// is out of bounds.
func (b *Buffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(b.B) {
		panic("buffer: Slice: invalid indices")
	}

	return b.B[start:end]
}

// SetLength sets the buffer's logical length to n without touching its
// contents. Panics if n is negative or exceeds capacity.
func (b *Buffer) SetLength(n int) {
	if n < 0 || n > cap(b.B) {
		panic("buffer: SetLength: invalid length")
	}
	b.B = b.B[:n]
}

// Extend grows the logical length by n bytes if capacity allows, reporting
// whether it succeeded without reallocating.
func (b *Buffer) Extend(n int) bool {
	cur := len(b.B)
	if cap(b.B)-cur < n {
		return false
	}
	b.B = b.B[:cur+n]

	return true
}

// ExtendOrGrow extends the logical length by n bytes, growing the backing
// array first if there isn't enough spare capacity.
func (b *Buffer) ExtendOrGrow(n int) {
	if b.Extend(n) {
		return
	}
	start := len(b.B)
	b.Grow(n)
	b.B = b.B[:start+n]
}

// Grow ensures the buffer can accept at least n more bytes without a further
// reallocation.
//
// Growth strategy: buffers under 4x DefaultSize grow by a fixed DefaultSize
// chunk to minimize reallocation count for the common "many small stages"
// case; larger buffers grow by 25% of current capacity to bound copy cost.
func (b *Buffer) Grow(n int) {
	available := cap(b.B) - len(b.B)
	if available >= n {
		return
	}

	growBy := DefaultSize
	if cap(b.B) > 4*DefaultSize {
		growBy = cap(b.B) / 4
	}
	if growBy < n {
		growBy = n
	}

	next := make([]byte, len(b.B), len(b.B)+growBy)
	copy(next, b.B)
	b.B = next
}

// Write implements io.Writer, appending p to the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.B = append(b.B, p...)
	return len(p), nil
}

// WriteTo implements io.WriterTo, copying the buffer's contents to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.B)
	return int64(n), err
}
