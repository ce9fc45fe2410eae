package codec

import (
	"encoding/binary"
	"math"

	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// isDeltaEligible reports whether t is one of the float kinds DELTA-DIFF
// operates on (spec §4.2 lists bf16/f32/f64 — f16 is excluded).
func isDeltaEligible(t etype.Type) bool {
	switch t {
	case etype.BFloat16, etype.Float32, etype.Float64:
		return true
	default:
		return false
	}
}

// deltaDiffStage implements DELTA-DIFF (spec §4.2): x[i] -= x[i-1], with
// x[-1] = 0 at the start of the buffer. 1→1. Like LZ4 and S2, this is an
// extension beyond the core wire vocabulary (spec §4.5 permits extending the
// candidate table with DELTA chains for applicable types); the streaming
// operator graph carries state across blocks using
// DeltaDiffEncodeBlock/DecodeBlock below instead of this Stage directly.
type deltaDiffStage struct{}

func (deltaDiffStage) Tag() Tag              { return TagDeltaDiff }
func (deltaDiffStage) FanOut(etype.Type) int { return 1 }

func (deltaDiffStage) Encode(in [][]byte, t etype.Type, _ []int, _ float64) ([][]byte, error) {
	if !isDeltaEligible(t) {
		return nil, errs.ErrCodecFailed
	}

	out := append([]byte(nil), in[0]...)
	DeltaDiffEncodeBlock(t, out, 0)

	return [][]byte{out}, nil
}

func (deltaDiffStage) Decode(in [][]byte, t etype.Type, _ []int) ([][]byte, error) {
	if !isDeltaEligible(t) {
		return nil, errs.ErrCodecFailed
	}

	out := append([]byte(nil), in[0]...)
	DeltaDiffDecodeBlock(t, out, 0)

	return [][]byte{out}, nil
}

// deltaDiffDiffStage implements DELTA-DIFF-DIFF: DeltaDiff applied twice.
type deltaDiffDiffStage struct{}

func (deltaDiffDiffStage) Tag() Tag              { return TagDeltaDiffDiff }
func (deltaDiffDiffStage) FanOut(etype.Type) int { return 1 }

func (deltaDiffDiffStage) Encode(in [][]byte, t etype.Type, shape []int, eps float64) ([][]byte, error) {
	once, err := (deltaDiffStage{}).Encode(in, t, shape, eps)
	if err != nil {
		return nil, err
	}

	return (deltaDiffStage{}).Encode(once, t, shape, eps)
}

func (deltaDiffDiffStage) Decode(in [][]byte, t etype.Type, shape []int) ([][]byte, error) {
	once, err := (deltaDiffStage{}).Decode(in, t, shape)
	if err != nil {
		return nil, err
	}

	return (deltaDiffStage{}).Decode(once, t, shape)
}

// DeltaDiffEncodeBlock applies the first-difference transform in place to
// buf (a little-endian array of t), given the carried-in previous value
// carry (the "x[-1]" of the block). Returns the new carry (buf's last
// original value) for the next block. Used directly by the streaming
// Transform operator, which must thread carry across blocks (spec §4.4).
func DeltaDiffEncodeBlock(t etype.Type, buf []byte, carry float64) float64 {
	w := t.ByteWidth()
	n := len(buf) / w
	prev := carry

	for i := range n {
		e := buf[i*w : i*w+w]
		cur := getFloatElem(t, e)
		setFloatElem(t, e, cur-prev)
		prev = cur
	}

	return prev
}

// DeltaDiffDecodeBlock reverses DeltaDiffEncodeBlock in place: a running sum
// seeded with carry. Returns the new carry (the last reconstructed value).
func DeltaDiffDecodeBlock(t etype.Type, buf []byte, carry float64) float64 {
	w := t.ByteWidth()
	n := len(buf) / w
	prev := carry

	for i := range n {
		e := buf[i*w : i*w+w]
		d := getFloatElem(t, e)
		cur := d + prev
		setFloatElem(t, e, cur)
		prev = cur
	}

	return prev
}

func getFloatElem(t etype.Type, b []byte) float64 {
	switch t {
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

func setFloatElem(t etype.Type, b []byte, v float64) {
	switch t {
	case etype.BFloat16:
		binary.LittleEndian.PutUint16(b, bfloat16FromFloat32(float32(v)))
	case etype.Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case etype.Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// isXOREligible reports whether t is one of the unsigned integer kinds XOR
// operates on (spec §4.2: u8/u16/u32/u64; Byte shares u8's width).
func isXOREligible(t etype.Type) bool {
	return t.IsUnsignedInt() || t == etype.Byte
}

// xorStage implements XOR (spec §4.2) over unsigned integer kinds:
// x[i] ^= x[i-1], x[-1] = 0. Exactly reversible (XOR is its own inverse).
// Tsar's other extension beyond the core wire vocabulary, alongside DELTA.
type xorStage struct{}

func (xorStage) Tag() Tag              { return TagXOR }
func (xorStage) FanOut(etype.Type) int { return 1 }

func (xorStage) Encode(in [][]byte, t etype.Type, _ []int, _ float64) ([][]byte, error) {
	if !isXOREligible(t) {
		return nil, errs.ErrCodecFailed
	}

	out := append([]byte(nil), in[0]...)
	XOREncodeBlock(t, out, 0)

	return [][]byte{out}, nil
}

func (xorStage) Decode(in [][]byte, t etype.Type, _ []int) ([][]byte, error) {
	if !isXOREligible(t) {
		return nil, errs.ErrCodecFailed
	}

	out := append([]byte(nil), in[0]...)
	XORDecodeBlock(t, out, 0)

	return [][]byte{out}, nil
}

// XOREncodeBlock XORs each element with the previous original element in
// place (carry is the previous block's last original element, or 0 for the
// first block). Returns the new carry for the next block.
func XOREncodeBlock(t etype.Type, buf []byte, carry uint64) uint64 {
	w := t.ByteWidth()
	n := len(buf) / w
	prev := carry

	for i := range n {
		e := buf[i*w : i*w+w]
		cur := getUintElem(t, e)
		setUintElem(t, e, cur^prev)
		prev = cur
	}

	return prev
}

// XORDecodeBlock reverses XOREncodeBlock in place. Unlike the encode pass,
// the running value threaded between elements is the *decoded* original,
// not the encoded one, so this cannot reuse XOREncodeBlock's loop despite
// XOR being its own inverse per-element.
func XORDecodeBlock(t etype.Type, buf []byte, carry uint64) uint64 {
	w := t.ByteWidth()
	n := len(buf) / w
	prev := carry

	for i := range n {
		e := buf[i*w : i*w+w]
		enc := getUintElem(t, e)
		cur := enc ^ prev
		setUintElem(t, e, cur)
		prev = cur
	}

	return prev
}

func getUintElem(t etype.Type, b []byte) uint64 {
	switch t {
	case etype.Uint8, etype.Byte:
		return uint64(b[0])
	case etype.Uint16:
		return uint64(binary.LittleEndian.Uint16(b))
	case etype.Uint32:
		return uint64(binary.LittleEndian.Uint32(b))
	case etype.Uint64:
		return binary.LittleEndian.Uint64(b)
	default:
		return 0
	}
}

func setUintElem(t etype.Type, b []byte, v uint64) {
	switch t {
	case etype.Uint8, etype.Byte:
		b[0] = byte(v)
	case etype.Uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case etype.Uint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case etype.Uint64:
		binary.LittleEndian.PutUint64(b, v)
	}
}
