package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian14708/tsar/buffer"
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/etype"
)

func f32bytes(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], math.Float32bits(v))
	}

	return b
}

func TestSource_ReadsInBlocks(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 10)
	src := NewSource(bytes.NewReader(data), 4)

	var got []byte
	err := Run(context.Background(), src, func(out []*buffer.Buffer) error {
		got = append(got, out[0].Bytes()...)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSink_CopiesToWriter(t *testing.T) {
	data := bytes.Repeat([]byte{0x01, 0x02}, 20)
	src := NewSource(bytes.NewReader(data), 8)

	var buf bytes.Buffer
	sink := NewSink(src, &buf)

	err := Drain(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, data, buf.Bytes())
}

func TestTransform_SplitF32_RoundTripsThroughSourceAndSink(t *testing.T) {
	data := f32bytes(1, 2, 3, 4, 5, 6, 7, 8)
	src := NewSource(bytes.NewReader(data), 1024)

	enc, err := NewEncodeTransform(src, codec.TagSplitF32, etype.Float32, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, enc.NumOutputs())

	var exp, mant bytes.Buffer
	sink := NewSink(enc, &exp, &mant)
	require.NoError(t, Drain(context.Background(), sink))

	decSrc0 := NewSource(bytes.NewReader(exp.Bytes()), 1024)
	decSrc1 := NewSource(bytes.NewReader(mant.Bytes()), 1024)
	merged := &fixedTwoSource{a: decSrc0, b: decSrc1}

	dec, err := NewDecodeTransform(merged, codec.TagSplitF32, etype.Float32, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	decSink := NewSink(dec, &out)
	require.NoError(t, Drain(context.Background(), decSink))
	assert.Equal(t, data, out.Bytes())
}

// fixedTwoSource merges two single-stream operators into one two-stream
// operator, for exercising a 2-input Transform.Decode without building a
// full container reader.
type fixedTwoSource struct {
	a, b Operator
}

func (f *fixedTwoSource) NumOutputs() int { return 2 }

func (f *fixedTwoSource) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	tmp := []*buffer.Buffer{buffer.GetStreamBuffer()}
	defer buffer.PutStreamBuffer(tmp[0])

	na, err := f.a.Next(ctx, tmp)
	if err != nil {
		return 0, err
	}
	out[0].Reset()
	out[0].Append(tmp[0].Bytes())

	tmp[0].Reset()
	nb, err := f.b.Next(ctx, tmp)
	if err != nil {
		return 0, err
	}
	out[1].Reset()
	out[1].Append(tmp[0].Bytes())

	return na + nb, nil
}

func TestTransform_XOR_StatefulAcrossBlocks(t *testing.T) {
	src := bytesSrc([]byte{10, 20, 30, 40, 50, 60, 70, 80}, 3)

	enc, err := NewEncodeTransform(src, codec.TagXOR, etype.Uint8, nil, 0)
	require.NoError(t, err)

	var encoded bytes.Buffer
	require.NoError(t, Drain(context.Background(), NewSink(enc, &encoded)))

	src2 := bytesSrc(encoded.Bytes(), 3)
	dec, err := NewDecodeTransform(src2, codec.TagXOR, etype.Uint8, nil)
	require.NoError(t, err)

	var decoded bytes.Buffer
	require.NoError(t, Drain(context.Background(), NewSink(dec, &decoded)))

	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60, 70, 80}, decoded.Bytes())
}

func bytesSrc(data []byte, blockSize int) *Source {
	return NewSource(bytes.NewReader(data), blockSize)
}

func TestBlockAlign_BuffersUntilMinimum(t *testing.T) {
	data := bytes.Repeat([]byte{0x1}, 100)
	src := NewSource(bytes.NewReader(data), 4)
	aligned := NewBlockAlign(src, 32)

	var blockSizes []int
	err := Run(context.Background(), aligned, func(out []*buffer.Buffer) error {
		blockSizes = append(blockSizes, out[0].Len())

		return nil
	})
	require.NoError(t, err)

	total := 0
	for i, sz := range blockSizes {
		total += sz
		if i != len(blockSizes)-1 {
			assert.GreaterOrEqual(t, sz, 32)
		}
	}
	assert.Equal(t, len(data), total)
}

func TestByteCount_TalliesBytes(t *testing.T) {
	data := bytes.Repeat([]byte{0x1}, 50)
	src := NewSource(bytes.NewReader(data), 16)
	counter := NewByteCount(src)

	require.NoError(t, Drain(context.Background(), NewSink(counter, &bytes.Buffer{})))
	assert.Equal(t, []int{len(data)}, counter.Totals())
}

func TestPipeThroughWriterReader_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("hello streaming world "), 200)
	src := NewSource(bytes.NewReader(data), 512)

	w := NewPipeThroughWriter(src, codec.ZstdCompressor{})

	var compressed bytes.Buffer
	require.NoError(t, Drain(context.Background(), NewSink(w, &compressed)))
	assert.Less(t, compressed.Len(), len(data))

	src2 := NewSource(bytes.NewReader(compressed.Bytes()), 256)
	r := NewPipeThroughReader(src2, codec.ZstdCompressor{})

	var out bytes.Buffer
	require.NoError(t, Drain(context.Background(), NewSink(r, &out)))
	assert.Equal(t, data, out.Bytes())
}
