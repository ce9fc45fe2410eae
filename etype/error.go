package etype

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/x448/float16"
)

// Metric selects which error variant Error computes. The policy package must
// use exactly one variant for both its acceptance filter and the value it
// reports to callers — mixing them is the "latent bug" spec §9 warns about.
type Metric uint8

const (
	// Absolute is max(|src_i - targ_i|) over all elements (or the byte
	// population-count metric for Type Byte). This is tsar's default.
	Absolute Metric = iota
	// Relative is max(|src_i - targ_i| / max(|src_i|, |targ_i|)) over all
	// elements whose denominator is nonzero; elements where both src and
	// targ are zero contribute 0. Opt-in alternative, never mixed with
	// Absolute in a single selection run (see DESIGN.md).
	Relative
)

// Error computes the bounded divergence between src and targ, both
// interpreted as little-endian arrays of t, using the given metric.
//
// Returns (value, true) on success, or (0, false) if the error is undefined:
// buffers of differing or misaligned length, or a NaN/incomparable pair for
// a float kind (§4.1). Empty (zero-length, equal) inputs return (0, true).
func Error(t Type, src, targ []byte, m Metric) (float64, bool) {
	w := t.ByteWidth()
	if w == 0 || len(src) != len(targ) || len(src)%w != 0 {
		return 0, false
	}
	if len(src) == 0 {
		return 0, true
	}

	if t == Byte {
		return byteDiff(src, targ), true
	}

	n := len(src) / w
	maxErr := 0.0
	for i := range n {
		a := src[i*w : i*w+w]
		b := targ[i*w : i*w+w]

		sv, tv, ok := widen(t, a, b)
		if !ok {
			return 0, false
		}

		var e float64
		switch m {
		case Relative:
			denom := math.Max(math.Abs(sv), math.Abs(tv))
			if denom == 0 {
				e = 0
			} else {
				e = math.Abs(sv-tv) / denom
			}
		default:
			e = math.Abs(sv - tv)
		}

		if e > maxErr {
			maxErr = e
		}
	}

	return maxErr, true
}

// byteDiff implements the Byte metric: total population count of the XOR of
// src and targ, summed in 64-bit chunks with a byte-wise remainder (§4.1).
func byteDiff(src, targ []byte) float64 {
	var total uint64

	n := len(src)
	chunks := n / 8
	for i := range chunks {
		a := binary.LittleEndian.Uint64(src[i*8:])
		b := binary.LittleEndian.Uint64(targ[i*8:])
		total += uint64(bits.OnesCount64(a ^ b))
	}

	for i := chunks * 8; i < n; i++ {
		total += uint64(bits.OnesCount8(src[i] ^ targ[i]))
	}

	return float64(total)
}

// widen decodes one element of type t from a and b (each exactly w(t) bytes,
// little-endian) into float64 for comparison. Returns ok=false if either
// value is a NaN (float kinds only).
func widen(t Type, a, b []byte) (sv, tv float64, ok bool) {
	switch t {
	case Int8:
		return float64(int8(a[0])), float64(int8(b[0])), true
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(a))), float64(int16(binary.LittleEndian.Uint16(b))), true
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(a))), float64(int32(binary.LittleEndian.Uint32(b))), true
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(a))), float64(int64(binary.LittleEndian.Uint64(b))), true
	case Uint8:
		return float64(a[0]), float64(b[0]), true
	case Uint16:
		return float64(binary.LittleEndian.Uint16(a)), float64(binary.LittleEndian.Uint16(b)), true
	case Uint32:
		return float64(binary.LittleEndian.Uint32(a)), float64(binary.LittleEndian.Uint32(b)), true
	case Uint64:
		return float64(binary.LittleEndian.Uint64(a)), float64(binary.LittleEndian.Uint64(b)), true
	case Float16:
		sf := float16.Frombits(binary.LittleEndian.Uint16(a)).Float32()
		tf := float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
		if isNaN32(sf) || isNaN32(tf) {
			return 0, 0, false
		}

		return float64(sf), float64(tf), true
	case BFloat16:
		sf := bfloat16ToFloat32(binary.LittleEndian.Uint16(a))
		tf := bfloat16ToFloat32(binary.LittleEndian.Uint16(b))
		if isNaN32(sf) || isNaN32(tf) {
			return 0, 0, false
		}

		return float64(sf), float64(tf), true
	case Float32:
		sf := math.Float32frombits(binary.LittleEndian.Uint32(a))
		tf := math.Float32frombits(binary.LittleEndian.Uint32(b))
		if isNaN32(sf) || isNaN32(tf) {
			return 0, 0, false
		}

		return float64(sf), float64(tf), true
	case Float64:
		sf := math.Float64frombits(binary.LittleEndian.Uint64(a))
		tf := math.Float64frombits(binary.LittleEndian.Uint64(b))
		if math.IsNaN(sf) || math.IsNaN(tf) {
			return 0, 0, false
		}

		return sf, tf, true
	default:
		return 0, 0, false
	}
}

func isNaN32(f float32) bool {
	return f != f
}

// bfloat16ToFloat32 widens a bf16 bit pattern to float32. bf16 shares f32's
// sign/exponent layout and simply truncates the mantissa, so widening is a
// left shift by 16 bits into the f32 bit position.
func bfloat16ToFloat32(bits16 uint16) float32 {
	return math.Float32frombits(uint32(bits16) << 16)
}
