package stream

import (
	"context"
	"io"

	"github.com/brian14708/tsar/buffer"
)

// Sink copies each of parent's output streams to a caller-supplied writer.
// Fan-out 0: Next reports the bytes written (so Drain can distinguish a real
// block from end of stream) but never produces a block of its own.
type Sink struct {
	parent  Operator
	writers []io.Writer
}

// NewSink builds a Sink writing parent's i'th output stream to writers[i].
// len(writers) must equal parent.NumOutputs().
func NewSink(parent Operator, writers ...io.Writer) *Sink {
	return &Sink{parent: parent, writers: writers}
}

func (s *Sink) NumOutputs() int { return 0 }

func (s *Sink) Next(ctx context.Context, _ []*buffer.Buffer) (int, error) {
	parentOut := make([]*buffer.Buffer, s.parent.NumOutputs())
	for i := range parentOut {
		parentOut[i] = buffer.GetStreamBuffer()
	}
	defer func() {
		for _, b := range parentOut {
			buffer.PutStreamBuffer(b)
		}
	}()

	n, err := s.parent.Next(ctx, parentOut)
	if err != nil || n == 0 {
		return 0, err
	}

	for i, b := range parentOut {
		if _, err := s.writers[i].Write(b.Bytes()); err != nil {
			return 0, err
		}
	}

	return n, nil
}

// Drain runs op to completion, discarding its output. Useful when op
// terminates in a Sink (fan-out 0) and the caller only needs Drain's error.
func Drain(ctx context.Context, op Operator) error {
	for {
		n, err := op.Next(ctx, nil)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
