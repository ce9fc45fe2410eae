package codec

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/brian14708/tsar/etype"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// rawBlockFlag and lz4BlockFlag prefix LZ4Compressor's output by one byte.
// lz4.CompressBlock returns n==0 for incompressible input (its documented
// signal to store the block uncompressed); without a flag byte the
// decompressor would have no way to distinguish that case from a compressed
// block, silently corrupting data.
const (
	rawBlockFlag byte = 0
	lz4BlockFlag byte = 1
)

// LZ4Compressor provides an alternative entropy stage selectable in an
// extended candidate table (spec §4.5 permits implementations to extend the
// table beyond the core wire vocabulary).
type LZ4Compressor struct{}

var _ Codec = LZ4Compressor{}

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data using LZ4 block compression, falling back to a
// raw (uncompressed) block when LZ4 reports the input incompressible.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{rawBlockFlag}, nil
	}

	dst := make([]byte, 1+lz4.CompressBlockBound(len(data)))
	dst[0] = lz4BlockFlag

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, err
	}

	if n == 0 || n >= len(data) {
		out := make([]byte, 1+len(data))
		out[0] = rawBlockFlag
		copy(out[1:], data)

		return out, nil
	}

	return dst[:1+n], nil
}

// Decompress reverses Compress.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	flag, body := data[0], data[1:]
	if flag == rawBlockFlag {
		out := make([]byte, len(body))
		copy(out, body)

		return out, nil
	}

	bufSize := len(body) * 4
	const maxSize = 128 * 1024 * 1024 // 128MB safety limit

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)

		n, err := lz4.UncompressBlock(body, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}

// lz4Stage adapts LZ4Compressor to the Stage interface.
type lz4Stage struct{}

func (lz4Stage) Tag() Tag              { return TagLZ4 }
func (lz4Stage) FanOut(etype.Type) int { return 1 }

func (s lz4Stage) Encode(in [][]byte, _ etype.Type, _ []int, _ float64) ([][]byte, error) {
	out, err := LZ4Compressor{}.Compress(in[0])
	if err != nil {
		return nil, err
	}

	return [][]byte{out}, nil
}

func (s lz4Stage) Decode(in [][]byte, _ etype.Type, _ []int) ([][]byte, error) {
	out, err := LZ4Compressor{}.Decompress(in[0])
	if err != nil {
		return nil, err
	}

	return [][]byte{out}, nil
}

// NewLZ4Stage returns the LZ4 entropy stage for use in a user-extended
// candidate table.
func NewLZ4Stage() Stage { return lz4Stage{} }
