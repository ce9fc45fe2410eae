package policy

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestSelect_Float32_PicksWithinBudget(t *testing.T) {
	p := New()

	vals := make([]float32, 256)
	for i := range vals {
		vals[i] = float32(i) * 0.25
	}
	data := f32bytes(vals...)

	sel, err := p.Select(data, etype.Float32, []int{len(vals)}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sel.Result.Error)
	assert.NotEmpty(t, sel.Chain)
}

func TestSelect_Float32_LossyBudgetAllowsSmallerChain(t *testing.T) {
	p := New()

	vals := make([]float32, 256)
	for i := range vals {
		vals[i] = float32(i) + 0.1
	}
	data := f32bytes(vals...)

	sel, err := p.Select(data, etype.Float32, []int{len(vals)}, 0.5)
	require.NoError(t, err)
	assert.LessOrEqual(t, sel.Result.Error, 0.5)
}

func TestSelect_UnknownTypeFallsBackToDefaultCandidates(t *testing.T) {
	p := New()
	data := []byte("arbitrary opaque payload, arbitrary opaque payload")

	sel, err := p.Select(data, etype.Byte, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sel.Result.Error)
}

func TestSelect_ImpossibleBudgetFallsBackToEmptyChain(t *testing.T) {
	// WithChains restricts Float32 to only lossy candidates so an eps of 0
	// cannot be satisfied by any of them, forcing the raw fallback.
	p := New(WithChains(etype.Float32, codec.Chain{codec.TagConvertF32ToBF16, codec.TagSplitBF16}))

	vals := []float32{1.1, 2.2, 3.3, 4.4}
	data := f32bytes(vals...)

	sel, err := p.Select(data, etype.Float32, []int{len(vals)}, 0)
	require.NoError(t, err)
	assert.Empty(t, sel.Chain)
	assert.Equal(t, 0.0, sel.Result.Error)
	require.Len(t, sel.Result.Outputs, 1)
	assert.Equal(t, data, sel.Result.Outputs[0])
}

func TestWithChains_Override(t *testing.T) {
	custom := codec.Chain{codec.TagSplitF32, codec.TagZstd}
	p := New(WithChains(etype.Float32, custom))

	cs := candidatesFor(p.table, etype.Float32)
	require.Len(t, cs, 1)
	assert.Equal(t, custom, cs[0])
}

func TestWithMetric(t *testing.T) {
	p := New(WithMetric(etype.Relative))
	assert.Equal(t, etype.Relative, p.metric)
}

func TestSelect_ProbeShortCircuitIsIdempotent(t *testing.T) {
	p := New(WithChains(etype.Float32, codec.Chain{codec.TagConvertF32ToBF16, codec.TagSplitBF16}))

	vals := []float32{1.1, 2.2, 3.3, 4.4}
	data := f32bytes(vals...)

	sel1, err := p.Select(data, etype.Float32, []int{len(vals)}, 0)
	require.NoError(t, err)

	sel2, err := p.Select(data, etype.Float32, []int{len(vals)}, 0)
	require.NoError(t, err)

	assert.Equal(t, sel1.Chain, sel2.Chain)
	assert.Equal(t, sel1.Result.Error, sel2.Result.Error)
}
