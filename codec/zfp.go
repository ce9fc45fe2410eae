package codec

import (
	"encoding/binary"
	"math"

	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// zfpBlock is the element count per shared-exponent block. Real ZFP uses
// 4^D elements per block; tsar only wires the 1D case (spec §6 restricts
// the wire vocabulary to ZFP_F32_1D/ZFP_F64_1D), so the block is just 4.
const zfpBlock = 4

// expBits and nbitsBits size the per-block header fields of zfpStage's
// bitstream: 12 bits covers every float32/float64 binary exponent after
// biasing (-1074..1024), 6 bits covers a mantissa width up to 63.
const (
	zfpExpBits   = 12
	zfpExpBias   = 1 << 11
	zfpNBitsBits = 6
)

// zfpStage implements a ZFP-style fixed-accuracy tensor coder (spec §4.2):
// a 1D array of T is split into fixed-size blocks, each block normalized by
// its own shared power-of-two exponent and quantized to just enough
// fraction bits to bound per-element error at eps. It is not a byte-exact
// reimplementation of the real ZFP format (no ecosystem Go ZFP codec exists
// in the example pack to ground one on; see DESIGN.md) — the contract it
// honors is the same one spec §4.2 states: lossy, bounded by eps, 1D.
type zfpStage struct {
	t etype.Type
}

func (s zfpStage) Tag() Tag {
	switch s.t {
	case etype.Float32:
		return TagZfpF32_1D
	case etype.Float64:
		return TagZfpF64_1D
	default:
		return TagInvalid
	}
}

func (zfpStage) FanOut(etype.Type) int { return 1 }

func (s zfpStage) Encode(in [][]byte, t etype.Type, _ []int, eps float64) ([][]byte, error) {
	if t != s.t || (t != etype.Float32 && t != etype.Float64) {
		return nil, errs.ErrCodecFailed
	}

	maxNBits := 23
	if t == etype.Float64 {
		maxNBits = 52
	}

	vals, err := decodeFloats(t, in[0])
	if err != nil {
		return nil, err
	}

	if eps <= 0 {
		eps = math.SmallestNonzeroFloat64
	}

	var w bitWriter
	for i := 0; i < len(vals); i += zfpBlock {
		end := i + zfpBlock
		if end > len(vals) {
			end = len(vals)
		}

		encodeZfpBlock(&w, vals[i:end], eps, maxNBits)
	}

	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(vals)))

	return [][]byte{append(header, w.Bytes()...)}, nil
}

func (s zfpStage) Decode(in [][]byte, t etype.Type, _ []int) ([][]byte, error) {
	if t != s.t || (t != etype.Float32 && t != etype.Float64) {
		return nil, errs.ErrCodecFailed
	}

	src := in[0]
	if len(src) < 4 {
		return nil, errs.ErrCodecFailed
	}

	n := int(binary.LittleEndian.Uint32(src[:4]))
	r := newBitReader(src[4:])

	vals := make([]float64, n)
	for i := 0; i < n; i += zfpBlock {
		end := i + zfpBlock
		if end > n {
			end = n
		}

		decodeZfpBlock(r, vals[i:end])
	}

	return [][]byte{encodeFloats(t, vals)}, nil
}

// encodeZfpBlock writes one block's header (present flag, exponent, nbits)
// plus each element's sign+magnitude code, choosing nbits so the per-element
// quantization step stays within eps. nbits is capped at maxNBits, so an eps
// finer than the step at that cap is not met.
func encodeZfpBlock(w *bitWriter, block []float64, eps float64, maxNBits int) {
	maxAbs := 0.0
	for _, v := range block {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}

	if maxAbs == 0 {
		w.WriteBits(0, 1)

		return
	}

	w.WriteBits(1, 1)

	_, exp := math.Frexp(maxAbs) // maxAbs = frac * 2^exp, frac in [0.5, 1)
	scale := math.Ldexp(1, exp)

	nbits := int(math.Ceil(math.Log2(scale / eps)))
	if nbits < 1 {
		nbits = 1
	}
	if nbits > maxNBits {
		nbits = maxNBits
	}

	w.WriteBits(uint64(exp+zfpExpBias), zfpExpBits)
	w.WriteBits(uint64(nbits), zfpNBitsBits)

	top := uint64(1)<<nbits - 1
	for _, v := range block {
		sign := uint64(0)
		if v < 0 {
			sign = 1
		}

		y := math.Abs(v) / scale // in [0, 1)
		code := uint64(math.Round(y * float64(uint64(1)<<nbits)))
		if code > top {
			code = top
		}

		w.WriteBits(sign, 1)
		w.WriteBits(code, nbits)
	}
}

// decodeZfpBlock reverses encodeZfpBlock into dst (len(dst) <= zfpBlock).
func decodeZfpBlock(r *bitReader, dst []float64) {
	present := r.ReadBits(1)
	if present == 0 {
		for i := range dst {
			dst[i] = 0
		}

		return
	}

	exp := int(r.ReadBits(zfpExpBits)) - zfpExpBias
	nbits := int(r.ReadBits(zfpNBitsBits))
	scale := math.Ldexp(1, exp)

	for i := range dst {
		sign := r.ReadBits(1)
		code := r.ReadBits(nbits)

		y := float64(code) / float64(uint64(1)<<nbits)
		v := y * scale
		if sign == 1 {
			v = -v
		}

		dst[i] = v
	}
}

func decodeFloats(t etype.Type, buf []byte) ([]float64, error) {
	w := t.ByteWidth()
	if w == 0 || len(buf)%w != 0 {
		return nil, errs.ErrMisalignedLength
	}

	n := len(buf) / w
	out := make([]float64, n)
	for i := range n {
		e := buf[i*w : i*w+w]
		if t == etype.Float32 {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(e)))
		} else {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(e))
		}
	}

	return out, nil
}

func encodeFloats(t etype.Type, vals []float64) []byte {
	w := t.ByteWidth()
	out := make([]byte, len(vals)*w)
	for i, v := range vals {
		e := out[i*w : i*w+w]
		if t == etype.Float32 {
			binary.LittleEndian.PutUint32(e, math.Float32bits(float32(v)))
		} else {
			binary.LittleEndian.PutUint64(e, math.Float64bits(v))
		}
	}

	return out
}
