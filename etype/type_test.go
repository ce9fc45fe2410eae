package etype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteWidth(t *testing.T) {
	tests := []struct {
		typ   Type
		width int
	}{
		{Byte, 1}, {Int8, 1}, {Uint8, 1},
		{Int16, 2}, {Uint16, 2}, {Float16, 2}, {BFloat16, 2},
		{Int32, 4}, {Uint32, 4}, {Float32, 4},
		{Int64, 8}, {Uint64, 8}, {Float64, 8},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.width, tt.typ.ByteWidth())
		})
	}

	assert.Equal(t, 0, invalid.ByteWidth())
}

func TestValid(t *testing.T) {
	assert.False(t, invalid.Valid())
	assert.True(t, Byte.Valid())
	assert.True(t, BFloat16.Valid())
	assert.False(t, Type(200).Valid())
}

func TestIsFloatIsSignedIsUnsigned(t *testing.T) {
	assert.True(t, Float32.IsFloat())
	assert.True(t, Float64.IsFloat())
	assert.True(t, Float16.IsFloat())
	assert.True(t, BFloat16.IsFloat())
	assert.False(t, Int32.IsFloat())

	assert.True(t, Int32.IsSignedInt())
	assert.False(t, Uint32.IsSignedInt())

	assert.True(t, Uint32.IsUnsignedInt())
	assert.False(t, Int32.IsUnsignedInt())
	assert.False(t, Byte.IsUnsignedInt())
}

func TestString(t *testing.T) {
	assert.Equal(t, "f32", Float32.String())
	assert.Equal(t, "bf16", BFloat16.String())
	assert.Contains(t, Type(250).String(), "invalid")
}
