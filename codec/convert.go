package codec

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// convertStage implements CONVERT fX→fY (spec §4.2): element-wise narrowing
// of a wider float type to a narrower one, round-to-nearest-ties-to-even,
// with NaN/±∞ preserved categorically. Fan-out 1→1; always lossy (narrowing
// discards mantissa bits) except for exact values that happen to round-trip.
type convertStage struct {
	tag      Tag
	from, to etype.Type
}

func (s convertStage) Tag() Tag { return s.tag }

func (s convertStage) FanOut(etype.Type) int { return 1 }

func (s convertStage) Encode(in [][]byte, t etype.Type, _ []int, _ float64) ([][]byte, error) {
	if t != s.from {
		return nil, errs.ErrCodecFailed
	}

	src := in[0]
	fw, tw := s.from.ByteWidth(), s.to.ByteWidth()
	if fw == 0 || len(src)%fw != 0 {
		return nil, errs.ErrMisalignedLength
	}

	n := len(src) / fw
	dst := make([]byte, n*tw)
	for i := range n {
		f64 := widenFloat(s.from, src[i*fw:i*fw+fw])
		narrowFloat(s.to, f64, dst[i*tw:i*tw+tw])
	}

	return [][]byte{dst}, nil
}

func (s convertStage) Decode(in [][]byte, t etype.Type, _ []int) ([][]byte, error) {
	if t != s.from {
		return nil, errs.ErrCodecFailed
	}

	src := in[0]
	fw, tw := s.from.ByteWidth(), s.to.ByteWidth()
	if tw == 0 || len(src)%tw != 0 {
		return nil, errs.ErrMisalignedLength
	}

	n := len(src) / tw
	dst := make([]byte, n*fw)
	for i := range n {
		f64 := widenFloat(s.to, src[i*tw:i*tw+tw])
		narrowFloat(s.from, f64, dst[i*fw:i*fw+fw])
	}

	return [][]byte{dst}, nil
}

// widenFloat decodes one little-endian element of t to float64, exactly
// (widening never loses precision for the kinds CONVERT operates on).
func widenFloat(t etype.Type, b []byte) float64 {
	switch t {
	case etype.Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
	case etype.BFloat16:
		return float64(math.Float32frombits(uint32(binary.LittleEndian.Uint16(b)) << 16))
	case etype.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case etype.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}

// narrowFloat rounds f to t's representation (round-to-nearest-ties-to-even,
// inherited from Go's float32()/float64() conversions which already round
// that way per IEEE 754) and writes it little-endian into dst. NaN/±Inf are
// categorically preserved since Go's float conversions already map
// NaN→NaN and ±Inf→±Inf.
func narrowFloat(t etype.Type, f float64, dst []byte) {
	switch t {
	case etype.Float16:
		binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(roundToOdd32(f)).Bits())
	case etype.BFloat16:
		binary.LittleEndian.PutUint16(dst, bfloat16FromFloat32(roundToOdd32(f)))
	case etype.Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(f)))
	case etype.Float64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
	}
}

// roundToOdd32 narrows f to float32 with round-to-odd: an inexact result is
// truncated toward zero and its lowest mantissa bit set. A later
// round-to-nearest-even step to a format at least two bits narrower (bf16,
// f16) then gives the same result as rounding f directly, instead of
// rounding twice.
func roundToOdd32(f float64) float32 {
	f32 := float32(f)
	d := float64(f32)
	if d == f || math.IsNaN(f) || math.IsInf(d, 0) {
		return f32
	}

	b := math.Float32bits(f32)
	if math.Abs(d) > math.Abs(f) {
		b--
	}

	return math.Float32frombits(b | 1)
}

// bfloat16FromFloat32 rounds a float32 to bf16 (round-to-nearest-ties-to-even
// over the truncated 16 low mantissa bits), preserving NaN/Inf categorically.
func bfloat16FromFloat32(f float32) uint16 {
	bits := math.Float32bits(f)
	if f != f { // NaN: keep a quiet NaN with the original sign/payload's top mantissa bit
		return uint16(bits>>16) | 0x0040
	}

	const roundBit = uint32(1) << 15
	lsb := (bits >> 16) & 1
	rounded := bits + roundBit - 1 + lsb
	// Overflow into the exponent on rounding up is handled naturally because
	// the addition carries through the mantissa into the exponent field.
	if (bits & 0x7F800000) == 0x7F800000 {
		// ±Inf: never round (mantissa is already zero, rounding would be a no-op,
		// but guard explicitly against spurious carry from a non-zero rounded
		// mantissa bit that can't occur here).
		return uint16(bits >> 16)
	}

	return uint16(rounded >> 16)
}
