package buffer

import "sync"

// Pool is a sync.Pool of Buffers, capped so pathologically large buffers
// (e.g. one stage that processed an outlier-sized blob) are not retained
// forever and bloat steady-state memory.
type Pool struct {
	pool        sync.Pool
	maxRetained int
	defaultSize int
}

// NewPool creates a Pool whose buffers start at defaultSize and are dropped
// (not returned to the pool) once they grow past maxRetained.
func NewPool(defaultSize, maxRetained int) *Pool {
	p := &Pool{maxRetained: maxRetained, defaultSize: defaultSize}
	p.pool.New = func() any { return New(defaultSize) }

	return p
}

// Get retrieves a Buffer from the pool, allocating a new one if the pool is
// empty.
func (p *Pool) Get() *Buffer {
	buf, _ := p.pool.Get().(*Buffer)
	return buf
}

// Put returns a Buffer to the pool for reuse. Buffers whose capacity exceeds
// maxRetained are discarded instead, so one oversized blob doesn't pin memory
// for the lifetime of the process.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}
	if p.maxRetained > 0 && buf.Cap() > p.maxRetained {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

// Default pools shared across the codec and pipeline packages: one sized for
// a single stage's output within a batch compress/decompress call, one sized
// for the streaming operator graph's blocks (§4.4's buffer pool, capacity 4
// lent at a time, default 4KiB per the spec; tsar reuses this same pool
// rather than a second bespoke one).
var (
	stagePool  = NewPool(DefaultSize, MaxRetainedSize)
	streamPool = NewPool(4096, StreamMaxRetained)
)

// GetStageBuffer retrieves a Buffer from the default per-stage pool.
func GetStageBuffer() *Buffer { return stagePool.Get() }

// PutStageBuffer returns a Buffer to the default per-stage pool.
func PutStageBuffer(b *Buffer) { stagePool.Put(b) }

// GetStreamBuffer retrieves a Buffer from the streaming-block pool. The
// streaming operator graph's buffer pool has a capacity of 4 outstanding
// buffers per the component design (§4.4); callers enforce that cap by only
// ever holding at most 4 outstanding Gets per operator `next` call.
func GetStreamBuffer() *Buffer { return streamPool.Get() }

// PutStreamBuffer returns a Buffer to the streaming-block pool.
func PutStreamBuffer(b *Buffer) { streamPool.Put(b) }
