package buffer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b := New(1024)

	require.NotNil(t, b)
	require.NotNil(t, b.B)
	assert.Equal(t, 0, len(b.B))
	assert.Equal(t, 1024, cap(b.B))
}

func TestBuffer_Bytes(t *testing.T) {
	b := New(DefaultSize)
	b.B = append(b.B, []byte("hello")...)

	got := b.Bytes()

	assert.Equal(t, []byte("hello"), got)
	assert.True(t, &b.B[0] == &got[0])
}

func TestBuffer_Reset(t *testing.T) {
	b := New(DefaultSize)
	b.B = append(b.B, []byte("some data")...)
	originalCap := cap(b.B)

	b.Reset()

	assert.Equal(t, 0, len(b.B))
	assert.Equal(t, originalCap, cap(b.B))
}

func TestBuffer_Append(t *testing.T) {
	b := New(DefaultSize)

	b.Append([]byte("hello"))
	assert.Equal(t, []byte("hello"), b.B)

	b.Append([]byte(" world"))
	assert.Equal(t, []byte("hello world"), b.B)
}

func TestBuffer_Write(t *testing.T) {
	b := New(DefaultSize)

	n, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), b.B)
}

func TestBuffer_WriteTo(t *testing.T) {
	b := New(DefaultSize)
	b.B = append(b.B, []byte("test data")...)

	var out bytes.Buffer
	n, err := b.WriteTo(&out)

	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "test data", out.String())
}

type errWriter struct{ err error }

func (w *errWriter) Write([]byte) (int, error) { return 0, w.err }

func TestBuffer_WriteTo_ErrorPropagation(t *testing.T) {
	b := New(DefaultSize)
	b.B = append(b.B, []byte("test")...)

	n, err := b.WriteTo(&errWriter{err: io.ErrShortWrite})

	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, int64(0), n)
}

func TestBuffer_Grow_SufficientCapacity(t *testing.T) {
	b := New(DefaultSize)
	originalCap := cap(b.B)

	b.Grow(100)

	assert.Equal(t, originalCap, cap(b.B))
}

func TestBuffer_Grow_SmallBuffer(t *testing.T) {
	b := New(DefaultSize)
	b.B = append(b.B, make([]byte, DefaultSize)...)

	b.Grow(1024)

	assert.GreaterOrEqual(t, cap(b.B), DefaultSize+1024)
	assert.Equal(t, DefaultSize, len(b.B))
}

func TestBuffer_Grow_LargeBuffer(t *testing.T) {
	b := New(DefaultSize)
	largeSize := 4*DefaultSize + 1024
	b.B = make([]byte, largeSize)

	b.Grow(2048)

	assert.GreaterOrEqual(t, cap(b.B), largeSize+2048)
}

func TestBuffer_Grow_PreservesData(t *testing.T) {
	b := New(DefaultSize)
	data := []byte("important data that must be preserved")
	b.B = append(b.B, data...)

	b.Grow(DefaultSize * 2)

	assert.Equal(t, data, b.B)
}

func TestBuffer_ExtendOrGrow(t *testing.T) {
	b := New(4)

	b.ExtendOrGrow(2)
	assert.Equal(t, 2, b.Len())

	b.ExtendOrGrow(100)
	assert.Equal(t, 102, b.Len())
}

func TestBuffer_SliceAndSetLength(t *testing.T) {
	b := New(16)
	b.SetLength(8)

	s := b.Slice(0, 8)
	assert.Len(t, s, 8)

	assert.Panics(t, func() { b.Slice(0, 100) })
	assert.Panics(t, func() { b.SetLength(-1) })
}
