package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/brian14708/tsar/chunk"
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
	"github.com/brian14708/tsar/stream"
)

// AddBlobStream compresses a blob whose bytes are read incrementally from r
// instead of being held in memory up front, driving chain's stages through
// the streaming operator graph (spec §4.4) rather than AddBlob's in-memory
// Policy probe. Because auto-tuning needs the whole blob to probe candidate
// chains, callers of AddBlobStream choose chain directly; eps only affects
// stages (like ZFP) that consult it during encoding, since no round-trip
// error is measured for a streamed blob.
func (w *Writer) AddBlobStream(name string, r io.Reader, t etype.Type, shape []int, chain codec.Chain, opts ...BlobOption) error {
	if w.finished {
		return errs.ErrArchiveFinished
	}

	if err := w.reserveName(name); err != nil {
		return err
	}

	byteLen := chunk.Descriptor{Type: t, Shape: shape}.ByteLength()
	if err := validateShape(t, shape, int(byteLen)); err != nil {
		return err
	}

	o, err := newBlobOptions(opts...)
	if err != nil {
		return err
	}

	outputs, consumed, err := runStreamChain(r, t, shape, chain, o.errorLimit)
	if err != nil {
		return fmt.Errorf("archive: add blob %q: %w", name, err)
	}
	if consumed != byteLen {
		return fmt.Errorf("archive: add blob %q: %w", name, errs.ErrShapeMismatch)
	}

	desc, emissions := chunk.Write(w.store, name, t, shape, chain, outputs)

	if o.hasTarget {
		desc.TargetFile = o.targetFile
		desc.TargetOffset = o.targetOffset
	}

	for _, e := range emissions {
		if err := w.writeChunk(e); err != nil {
			return fmt.Errorf("archive: add blob %q: %w", name, err)
		}
	}

	w.meta.Blobs = append(w.meta.Blobs, desc)

	return nil
}

// runStreamChain drives r through chain's stages over the streaming operator
// graph: a Source feeds blocks through a ByteCount (so the caller can check
// the actual input length against the declared shape, since a streamed blob
// is never read up front the way AddBlob reads it), then one Transform per
// non-terminal stage, the terminal entropy stage (if any) running through
// PipeThroughWriter, and a Sink collecting each resulting stream. Peak memory
// during the transform stages is bounded by the block size regardless of r's
// total length; only the final per-stream payload is held whole, since chunk
// identity is a content hash over the entire stream (spec §4.6). Returns the
// chunk-ready outputs and the number of bytes actually read from r.
func runStreamChain(r io.Reader, t etype.Type, shape []int, chain codec.Chain, eps float64) ([][]byte, int64, error) {
	src := stream.NewByteCount(stream.NewSource(r, stream.DefaultBlockSize))
	var op stream.Operator = src

	for i, tag := range chain {
		if i == len(chain)-1 {
			if c, ok := compressorForTag(tag); ok {
				op = stream.NewPipeThroughWriter(op, c)

				break
			}
		}

		tr, err := stream.NewEncodeTransform(op, tag, t, shape, eps)
		if err != nil {
			return nil, 0, err
		}

		op = tr
	}

	writers := make([]*bytes.Buffer, op.NumOutputs())
	sinkWriters := make([]io.Writer, len(writers))

	for i := range writers {
		writers[i] = &bytes.Buffer{}
		sinkWriters[i] = writers[i]
	}

	if err := stream.Drain(context.Background(), stream.NewSink(op, sinkWriters...)); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", errs.ErrCodecFailed, err)
	}

	outputs := make([][]byte, len(writers))
	for i, b := range writers {
		outputs[i] = b.Bytes()
	}

	return outputs, int64(src.Totals()[0]), nil
}

// compressorForTag returns the streaming-friendly Compressor backing a
// terminal entropy stage tag, so runStreamChain can route it through
// PipeThroughWriter instead of a per-block Transform.
func compressorForTag(tag codec.Tag) (codec.Compressor, bool) {
	switch tag {
	case codec.TagZstd:
		return codec.NewZstdCompressor(), true
	case codec.TagLZ4:
		return codec.NewLZ4Compressor(), true
	case codec.TagS2:
		return codec.NewS2Compressor(), true
	default:
		return nil, false
	}
}
