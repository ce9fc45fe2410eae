package codec

import (
	"encoding/binary"

	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// splitStage implements SPLIT MANTISSA (spec §4.2): a columnar split of a
// float type into an exponent+sign stream and a mantissa stream. Exactly
// reversible — it repacks the same bits, never rounds.
type splitStage struct {
	t etype.Type
}

func (s splitStage) Tag() Tag {
	switch s.t {
	case etype.BFloat16:
		return TagSplitBF16
	case etype.Float32:
		return TagSplitF32
	case etype.Float64:
		return TagSplitF64
	default:
		return TagInvalid
	}
}

// FanOut is 2 whatever the blob's element type: the stage always reads its
// input as s.t, which is what it receives after a CONVERT stage has narrowed
// the blob's elements (e.g. SPLIT_BF16 in a float32 blob's chain).
func (s splitStage) FanOut(etype.Type) int {
	return 2
}

func (s splitStage) Encode(in [][]byte, _ etype.Type, _ []int, _ float64) ([][]byte, error) {
	if len(in) != 1 {
		return nil, errs.ErrCodecFailed
	}

	t := s.t
	src := in[0]
	w := t.ByteWidth()
	if w == 0 || len(src)%w != 0 {
		return nil, errs.ErrMisalignedLength
	}

	n := len(src) / w

	switch t {
	case etype.BFloat16:
		s0 := make([]byte, n)
		s1 := make([]byte, n)
		for i := range n {
			bits := binary.LittleEndian.Uint16(src[i*2 : i*2+2])
			sign := byte((bits >> 15) & 1)
			exp := byte((bits >> 7) & 0xFF)
			man := byte(bits & 0x7F)
			s0[i] = exp
			s1[i] = (sign << 7) | man
		}

		return [][]byte{s0, s1}, nil
	case etype.Float16:
		s0 := make([]byte, n)
		s1 := make([]byte, n*2)
		for i := range n {
			bits := binary.LittleEndian.Uint16(src[i*2 : i*2+2])
			sign := uint16((bits >> 15) & 1)
			exp := byte((bits >> 10) & 0x1F)
			man := bits & 0x3FF
			s0[i] = exp
			binary.LittleEndian.PutUint16(s1[i*2:i*2+2], man|(sign<<10))
		}

		return [][]byte{s0, s1}, nil
	case etype.Float32:
		s0 := make([]byte, n)
		s1 := make([]byte, n*3)
		for i := range n {
			bits := binary.LittleEndian.Uint32(src[i*4 : i*4+4])
			sign := uint32((bits >> 31) & 1)
			exp := byte((bits >> 23) & 0xFF)
			man := bits & 0x7FFFFF
			s0[i] = exp
			put24(s1[i*3:i*3+3], (sign<<23)|man)
		}

		return [][]byte{s0, s1}, nil
	case etype.Float64:
		s0 := make([]byte, n*2)
		s1 := make([]byte, n*7)
		for i := range n {
			bits := binary.LittleEndian.Uint64(src[i*8 : i*8+8])
			sign := uint64((bits >> 63) & 1)
			exp := uint16((bits >> 52) & 0x7FF)
			man := bits & 0xFFFFFFFFFFFFF
			binary.LittleEndian.PutUint16(s0[i*2:i*2+2], exp)
			put56(s1[i*7:i*7+7], (sign<<52)|man)
		}

		return [][]byte{s0, s1}, nil
	default:
		return nil, errs.ErrCodecFailed
	}
}

func (s splitStage) Decode(in [][]byte, _ etype.Type, _ []int) ([][]byte, error) {
	if len(in) != 2 {
		return nil, errs.ErrCodecFailed
	}

	t := s.t
	s0, s1 := in[0], in[1]

	switch t {
	case etype.BFloat16:
		n := len(s0)
		if n != len(s1) {
			return nil, errs.ErrFanOutMismatch
		}

		out := make([]byte, n*2)
		for i := range n {
			exp := uint16(s0[i])
			sign := uint16(s1[i]>>7) & 1
			man := uint16(s1[i]) & 0x7F
			bits := (sign << 15) | (exp << 7) | man
			binary.LittleEndian.PutUint16(out[i*2:i*2+2], bits)
		}

		return [][]byte{out}, nil
	case etype.Float16:
		n := len(s0)
		if len(s1) != n*2 {
			return nil, errs.ErrFanOutMismatch
		}

		out := make([]byte, n*2)
		for i := range n {
			exp := uint16(s0[i]) & 0x1F
			packed := binary.LittleEndian.Uint16(s1[i*2 : i*2+2])
			sign := (packed >> 10) & 1
			man := packed & 0x3FF
			bits := (sign << 15) | (exp << 10) | man
			binary.LittleEndian.PutUint16(out[i*2:i*2+2], bits)
		}

		return [][]byte{out}, nil
	case etype.Float32:
		n := len(s0)
		if len(s1) != n*3 {
			return nil, errs.ErrFanOutMismatch
		}

		out := make([]byte, n*4)
		for i := range n {
			exp := uint32(s0[i])
			packed := get24(s1[i*3 : i*3+3])
			sign := (packed >> 23) & 1
			man := packed & 0x7FFFFF
			bits := (sign << 31) | (exp << 23) | man
			binary.LittleEndian.PutUint32(out[i*4:i*4+4], bits)
		}

		return [][]byte{out}, nil
	case etype.Float64:
		n := len(s0) / 2
		if len(s1) != n*7 {
			return nil, errs.ErrFanOutMismatch
		}

		out := make([]byte, n*8)
		for i := range n {
			exp := uint64(binary.LittleEndian.Uint16(s0[i*2:i*2+2])) & 0x7FF
			packed := get56(s1[i*7 : i*7+7])
			sign := (packed >> 52) & 1
			man := packed & 0xFFFFFFFFFFFFF
			bits := (sign << 63) | (exp << 52) | man
			binary.LittleEndian.PutUint64(out[i*8:i*8+8], bits)
		}

		return [][]byte{out}, nil
	default:
		return nil, errs.ErrCodecFailed
	}
}

// put24/get24 and put56/get56 read and write little-endian unsigned integers
// narrower than any stdlib fixed width, used for f32's 24-bit and f64's
// 56-bit packed sign+mantissa columns.
func put24(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

func get24(src []byte) uint32 {
	return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
}

func put56(dst []byte, v uint64) {
	for i := range 7 {
		dst[i] = byte(v >> (8 * i))
	}
}

func get56(src []byte) uint64 {
	var v uint64
	for i := range 7 {
		v |= uint64(src[i]) << (8 * i)
	}

	return v
}
