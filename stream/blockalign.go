package stream

import (
	"context"

	"github.com/brian14708/tsar/buffer"
)

// BlockAlign buffers each of parent's output streams until it holds at
// least min bytes before yielding, so a downstream stage that needs whole
// elements (e.g. a fixed-width CONVERT or SPLIT) never sees a block that
// splits one mid-element (spec §4.4).
type BlockAlign struct {
	parent  Operator
	min     int
	pending [][]byte
	eof     bool
}

// NewBlockAlign wraps parent, releasing blocks only once at least min bytes
// are buffered for every stream (or parent has reached EOF).
func NewBlockAlign(parent Operator, min int) *BlockAlign {
	return &BlockAlign{parent: parent, min: min, pending: make([][]byte, parent.NumOutputs())}
}

func (b *BlockAlign) NumOutputs() int { return b.parent.NumOutputs() }

func (b *BlockAlign) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	parentOut := make([]*buffer.Buffer, b.parent.NumOutputs())
	for i := range parentOut {
		parentOut[i] = buffer.GetStreamBuffer()
	}
	defer func() {
		for _, pb := range parentOut {
			buffer.PutStreamBuffer(pb)
		}
	}()

	for !b.eof && minLen(b.pending) < b.min {
		n, err := b.parent.Next(ctx, parentOut)
		if err != nil {
			return 0, err
		}

		if n == 0 {
			b.eof = true

			break
		}

		for i, p := range parentOut {
			b.pending[i] = append(b.pending[i], p.Bytes()...)
		}
	}

	if minLen(b.pending) == 0 {
		return 0, nil
	}

	total := 0
	for i, p := range b.pending {
		out[i].Reset()
		out[i].Append(p)
		total += len(p)
		b.pending[i] = nil
	}

	return total, nil
}

func minLen(bufs [][]byte) int {
	if len(bufs) == 0 {
		return 0
	}

	m := len(bufs[0])
	for _, b := range bufs[1:] {
		if len(b) < m {
			m = len(b)
		}
	}

	return m
}
