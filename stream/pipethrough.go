package stream

import (
	"context"

	"github.com/brian14708/tsar/buffer"
	"github.com/brian14708/tsar/codec"
)

// PipeThroughWriter adapts a batch Compressor (zstd, lz4, s2 — none of
// tsar's entropy codecs expose an incremental streaming API) into the
// streaming graph: it accumulates every block its parent produces per
// output stream into an internal buffer, and on parent EOF compresses each
// stream's accumulated buffer whole, then drains the compressed bytes in
// DefaultBlockSize-sized pieces (spec §4.4's "owns child writers that
// buffer into internal byte vectors ... on parent EOF, flushes all children
// and drains their remainder").
type PipeThroughWriter struct {
	parent  Operator
	codec   codec.Compressor
	pending [][]byte // per-stream accumulated raw input
	drain   [][]byte // per-stream compressed bytes awaiting emission
	eof     bool
}

// NewPipeThroughWriter wraps parent's output streams, compressing each with
// c once parent reaches end of stream.
func NewPipeThroughWriter(parent Operator, c codec.Compressor) *PipeThroughWriter {
	return &PipeThroughWriter{
		parent:  parent,
		codec:   c,
		pending: make([][]byte, parent.NumOutputs()),
		drain:   make([][]byte, parent.NumOutputs()),
	}
}

func (p *PipeThroughWriter) NumOutputs() int { return p.parent.NumOutputs() }

func (p *PipeThroughWriter) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	parentOut := make([]*buffer.Buffer, p.parent.NumOutputs())
	for i := range parentOut {
		parentOut[i] = buffer.GetStreamBuffer()
	}
	defer func() {
		for _, b := range parentOut {
			buffer.PutStreamBuffer(b)
		}
	}()

	// Pull from parent until EOF; an internal buffer never yields output
	// before then per the adapter's flush-on-EOF contract.
	for !p.eof {
		n, err := p.parent.Next(ctx, parentOut)
		if err != nil {
			return 0, err
		}

		if n == 0 {
			p.eof = true

			for i, acc := range p.pending {
				compressed, cerr := p.codec.Compress(acc)
				if cerr != nil {
					return 0, cerr
				}

				p.drain[i] = compressed
			}

			break
		}

		for i, b := range parentOut {
			p.pending[i] = append(p.pending[i], b.Bytes()...)
		}
	}

	total := 0
	anyLeft := false

	for i, rem := range p.drain {
		out[i].Reset()

		if len(rem) == 0 {
			continue
		}

		chunk := rem
		if len(chunk) > DefaultBlockSize {
			chunk = chunk[:DefaultBlockSize]
		}

		out[i].Append(chunk)
		p.drain[i] = rem[len(chunk):]
		total += len(chunk)

		if len(p.drain[i]) > 0 {
			anyLeft = true
		}
	}

	if total == 0 && !anyLeft {
		return 0, nil
	}

	return total, nil
}

// PipeThroughReader is PipeThroughWriter's dual: it pulls all of parent's
// compressed bytes per stream, decompresses once parent reaches EOF, then
// drains the reconstructed bytes in blocks (spec §4.4).
type PipeThroughReader struct {
	parent  Operator
	codec   codec.Decompressor
	pending [][]byte
	drain   [][]byte
	eof     bool
}

// NewPipeThroughReader wraps parent's compressed output streams, decoding
// each with c once parent reaches end of stream.
func NewPipeThroughReader(parent Operator, c codec.Decompressor) *PipeThroughReader {
	return &PipeThroughReader{
		parent:  parent,
		codec:   c,
		pending: make([][]byte, parent.NumOutputs()),
		drain:   make([][]byte, parent.NumOutputs()),
	}
}

func (p *PipeThroughReader) NumOutputs() int { return p.parent.NumOutputs() }

func (p *PipeThroughReader) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	parentOut := make([]*buffer.Buffer, p.parent.NumOutputs())
	for i := range parentOut {
		parentOut[i] = buffer.GetStreamBuffer()
	}
	defer func() {
		for _, b := range parentOut {
			buffer.PutStreamBuffer(b)
		}
	}()

	for !p.eof {
		n, err := p.parent.Next(ctx, parentOut)
		if err != nil {
			return 0, err
		}

		if n == 0 {
			p.eof = true

			for i, acc := range p.pending {
				decoded, derr := p.codec.Decompress(acc)
				if derr != nil {
					return 0, derr
				}

				p.drain[i] = decoded
			}

			break
		}

		for i, b := range parentOut {
			p.pending[i] = append(p.pending[i], b.Bytes()...)
		}
	}

	total := 0
	anyLeft := false

	for i, rem := range p.drain {
		out[i].Reset()

		if len(rem) == 0 {
			continue
		}

		chunk := rem
		if len(chunk) > DefaultBlockSize {
			chunk = chunk[:DefaultBlockSize]
		}

		out[i].Append(chunk)
		p.drain[i] = rem[len(chunk):]
		total += len(chunk)

		if len(p.drain[i]) > 0 {
			anyLeft = true
		}
	}

	if total == 0 && !anyLeft {
		return 0, nil
	}

	return total, nil
}
