package codec

import "github.com/brian14708/tsar/etype"

// ZstdCompressor provides Zstandard entropy coding, the default terminal
// stage of nearly every candidate chain (spec §4.5's tables all end in
// ZSTD). Level defaults to 9 per spec §4.2's stage catalog.
type ZstdCompressor struct {
	Level int
}

var _ Codec = ZstdCompressor{}

// NewZstdCompressor creates a Zstd compressor at the default level.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{Level: defaultZstdLevel}
}

// zstdStage adapts ZstdCompressor to the Stage interface.
type zstdStage struct {
	level int
}

func (zstdStage) Tag() Tag            { return TagZstd }
func (zstdStage) FanOut(etype.Type) int { return 1 }

func (s zstdStage) Encode(in [][]byte, _ etype.Type, _ []int, _ float64) ([][]byte, error) {
	out, err := ZstdCompressor{Level: s.level}.Compress(in[0])
	if err != nil {
		return nil, err
	}

	return [][]byte{out}, nil
}

func (s zstdStage) Decode(in [][]byte, _ etype.Type, _ []int) ([][]byte, error) {
	out, err := ZstdCompressor{Level: s.level}.Decompress(in[0])
	if err != nil {
		return nil, err
	}

	return [][]byte{out}, nil
}
