package codec

import "fmt"

// Tag identifies a compression stage on the wire (spec §6). The zero value,
// TagInvalid, never appears in a well-formed chain; readers reject a blob
// whose chain contains a tag this build does not recognize rather than
// rejecting the whole archive.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagZstd
	TagConvertF32ToBF16
	TagConvertF64ToBF16
	TagConvertF64ToF32
	TagSplitBF16
	TagSplitF32
	TagSplitF64
	TagZfpF32_1D
	TagZfpF64_1D

	// TagLZ4 and TagS2 extend the core wire vocabulary (spec §4.5 allows
	// implementations to extend the candidate table; §7 requires any reader
	// that doesn't recognize them to reject only the affected blob).
	TagLZ4
	TagS2
	TagDeltaDiff
	TagDeltaDiffDiff
	TagXOR
)

func (t Tag) String() string {
	switch t {
	case TagZstd:
		return "ZSTD"
	case TagConvertF32ToBF16:
		return "CONVERT_F32_BF16"
	case TagConvertF64ToBF16:
		return "CONVERT_F64_BF16"
	case TagConvertF64ToF32:
		return "CONVERT_F64_F32"
	case TagSplitBF16:
		return "SPLIT_BF16"
	case TagSplitF32:
		return "SPLIT_F32"
	case TagSplitF64:
		return "SPLIT_F64"
	case TagZfpF32_1D:
		return "ZFP_F32_1D"
	case TagZfpF64_1D:
		return "ZFP_F64_1D"
	case TagLZ4:
		return "LZ4"
	case TagS2:
		return "S2"
	case TagDeltaDiff:
		return "DELTA_DIFF"
	case TagDeltaDiffDiff:
		return "DELTA_DIFF_DIFF"
	case TagXOR:
		return "XOR"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(t))
	}
}

// Lossy reports whether the stage this tag identifies can introduce error.
// The pipeline driver measures round-trip error for every chain, lossy or
// not; this flag only classifies the stage.
func (t Tag) Lossy() bool {
	switch t {
	case TagConvertF32ToBF16, TagConvertF64ToBF16, TagConvertF64ToF32, TagZfpF32_1D, TagZfpF64_1D,
		TagDeltaDiff, TagDeltaDiffDiff:
		// DELTA-DIFF over floats is only *approximately* reversible: IEEE
		// subtraction then addition does not always recover the original
		// bit pattern exactly (spec §9's round-trip invariant excludes it).
		return true
	default:
		return false
	}
}
