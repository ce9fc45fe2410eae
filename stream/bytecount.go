package stream

import (
	"context"

	"github.com/brian14708/tsar/buffer"
)

// ByteCount is a passthrough operator that accumulates total bytes produced
// per output stream, for dry-run sizing (spec §4.4) — e.g. the selection
// policy's probe-then-rank step can drive a candidate chain through
// ByteCount instead of a real Sink when it only needs encoded size.
type ByteCount struct {
	parent Operator
	totals []int
}

// NewByteCount wraps parent, tallying bytes passed through each stream.
func NewByteCount(parent Operator) *ByteCount {
	return &ByteCount{parent: parent, totals: make([]int, parent.NumOutputs())}
}

func (c *ByteCount) NumOutputs() int { return c.parent.NumOutputs() }

// Totals returns the bytes counted per output stream so far.
func (c *ByteCount) Totals() []int {
	return append([]int(nil), c.totals...)
}

func (c *ByteCount) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	n, err := c.parent.Next(ctx, out)
	if err != nil || n == 0 {
		return n, err
	}

	for i, b := range out {
		c.totals[i] += b.Len()
	}

	return n, nil
}
