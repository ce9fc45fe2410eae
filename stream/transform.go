package stream

import (
	"context"
	"math"

	"github.com/brian14708/tsar/buffer"
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// carryStage is implemented by the codec stages that must thread state
// across blocks instead of transforming each block independently (spec
// §4.4: "stateful stages (delta, XOR) keep carry state across blocks").
type carryStage interface {
	encodeBlock(buf []byte, carry uint64) uint64
	decodeBlock(buf []byte, carry uint64) uint64
}

// deltaCarry adapts codec's float-carry DELTA-DIFF functions to carryStage's
// uint64 carry slot by reinterpreting the float64 carry as its bit pattern.
type deltaCarry struct{ t etype.Type }

func (d deltaCarry) encodeBlock(buf []byte, carry uint64) uint64 {
	return math.Float64bits(codec.DeltaDiffEncodeBlock(d.t, buf, math.Float64frombits(carry)))
}

func (d deltaCarry) decodeBlock(buf []byte, carry uint64) uint64 {
	return math.Float64bits(codec.DeltaDiffDecodeBlock(d.t, buf, math.Float64frombits(carry)))
}

type xorCarry struct{ t etype.Type }

func (x xorCarry) encodeBlock(buf []byte, carry uint64) uint64 {
	return codec.XOREncodeBlock(x.t, buf, carry)
}

func (x xorCarry) decodeBlock(buf []byte, carry uint64) uint64 {
	return codec.XORDecodeBlock(x.t, buf, carry)
}

// Transform wraps a parent Operator, applying one codec stage's encode (or
// decode) to each block the parent produces (spec §4.4). Stateless stages
// (split, convert) run the stage's batch Encode/Decode on each block in
// isolation; stateful stages (delta, XOR) thread carry state across blocks
// via a carryStage adapter instead.
type Transform struct {
	parent Operator
	tag    codec.Tag
	stage  codec.Stage
	t      etype.Type
	shape  []int
	eps    float64
	decode bool
	carry  carryStage
	carryV uint64
}

// NewEncodeTransform builds a Transform that runs tag's forward direction
// over parent's output blocks.
func NewEncodeTransform(parent Operator, tag codec.Tag, t etype.Type, shape []int, eps float64) (*Transform, error) {
	return newTransform(parent, tag, t, shape, eps, false)
}

// NewDecodeTransform builds a Transform that runs tag's inverse direction
// over parent's output blocks.
func NewDecodeTransform(parent Operator, tag codec.Tag, t etype.Type, shape []int) (*Transform, error) {
	return newTransform(parent, tag, t, shape, 0, true)
}

func newTransform(parent Operator, tag codec.Tag, t etype.Type, shape []int, eps float64, decode bool) (*Transform, error) {
	stage, ok := codec.Lookup(tag)
	if !ok {
		return nil, errs.ErrUnknownStageTag
	}

	tr := &Transform{parent: parent, tag: tag, stage: stage, t: t, shape: shape, eps: eps, decode: decode}

	switch tag {
	case codec.TagDeltaDiff:
		tr.carry = deltaCarry{t: t}
	case codec.TagXOR:
		tr.carry = xorCarry{t: t}
	}

	return tr, nil
}

func (t *Transform) NumOutputs() int {
	if t.carry != nil {
		return 1
	}

	if t.decode {
		// Decode reverses Encode: it consumes FanOut(t) input streams and
		// always produces the single stream Encode started from.
		return 1
	}

	return t.stage.FanOut(t.t)
}

func (t *Transform) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	parentOut := make([]*buffer.Buffer, t.parent.NumOutputs())
	for i := range parentOut {
		parentOut[i] = buffer.GetStreamBuffer()
	}
	defer func() {
		for _, b := range parentOut {
			buffer.PutStreamBuffer(b)
		}
	}()

	n, err := t.parent.Next(ctx, parentOut)
	if err != nil || n == 0 {
		return 0, err
	}

	if t.carry != nil {
		buf := append([]byte(nil), parentOut[0].Bytes()...)

		if t.decode {
			t.carryV = t.carry.decodeBlock(buf, t.carryV)
		} else {
			t.carryV = t.carry.encodeBlock(buf, t.carryV)
		}

		out[0].Reset()
		out[0].Append(buf)

		return len(buf), nil
	}

	in := make([][]byte, len(parentOut))
	for i, b := range parentOut {
		in[i] = b.Bytes()
	}

	var res [][]byte
	if t.decode {
		res, err = t.stage.Decode(in, t.t, t.shape)
	} else {
		res, err = t.stage.Encode(in, t.t, t.shape, t.eps)
	}
	if err != nil {
		return 0, err
	}

	total := 0
	for i, b := range res {
		out[i].Reset()
		out[i].Append(b)
		total += len(b)
	}

	return total, nil
}
