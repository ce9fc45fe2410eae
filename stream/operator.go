// Package stream implements tsar's streaming operator graph (spec §4.4): the
// same stages the codec package exposes for batch compression, wrapped as
// operators over bounded blocks so inputs that do not fit in memory can be
// compressed and decompressed without materializing the whole blob.
package stream

import (
	"context"

	"github.com/brian14708/tsar/buffer"
)

// Operator is one node in the streaming graph. next pulls (or produces) the
// next block of output, writing len(out) byte-vectors into out and
// returning the total bytes produced across all of them. A return of 0
// signals end of stream.
type Operator interface {
	// NumOutputs is the operator's fan-out.
	NumOutputs() int

	// Next produces the next block. len(out) must equal NumOutputs(). The
	// operator may grow the buffers in out; callers must not retain out's
	// contents past the following Next call.
	Next(ctx context.Context, out []*buffer.Buffer) (int, error)
}

// Run drives op to completion, invoking fn with each non-empty block until
// Next reports 0 produced bytes. fn's buffers are only valid for the
// duration of the call. Run is useful directly for tests and ad hoc
// pipelines; Sink and ByteCount call their parent's Next themselves.
func Run(ctx context.Context, op Operator, fn func(out []*buffer.Buffer) error) error {
	out := make([]*buffer.Buffer, op.NumOutputs())
	for i := range out {
		out[i] = buffer.GetStreamBuffer()
	}
	defer func() {
		for _, b := range out {
			buffer.PutStreamBuffer(b)
		}
	}()

	for {
		n, err := op.Next(ctx, out)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		if err := fn(out); err != nil {
			return err
		}
	}
}
