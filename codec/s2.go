package codec

import (
	"github.com/klauspost/compress/s2"

	"github.com/brian14708/tsar/etype"
)

// S2Compressor wraps klauspost/compress/s2, used by archive.AddBlobStream
// for a chain ending in S2 and, through s2Stage, as an extended-table entropy
// stage (spec §4.5's extensibility clause).
type S2Compressor struct{}

var _ Codec = S2Compressor{}

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data using S2.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress reverses Compress.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}

// s2Stage adapts S2Compressor to the Stage interface.
type s2Stage struct{}

func (s2Stage) Tag() Tag              { return TagS2 }
func (s2Stage) FanOut(etype.Type) int { return 1 }

func (s s2Stage) Encode(in [][]byte, _ etype.Type, _ []int, _ float64) ([][]byte, error) {
	out, err := S2Compressor{}.Compress(in[0])
	if err != nil {
		return nil, err
	}

	return [][]byte{out}, nil
}

func (s s2Stage) Decode(in [][]byte, _ etype.Type, _ []int) ([][]byte, error) {
	out, err := S2Compressor{}.Decompress(in[0])
	if err != nil {
		return nil, err
	}

	return [][]byte{out}, nil
}

// NewS2Stage returns the S2 entropy stage for use outside a registered chain.
func NewS2Stage() Stage { return s2Stage{} }
