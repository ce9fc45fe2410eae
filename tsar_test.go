package tsar

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian14708/tsar/archive"
)

func f32bytes(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], math.Float32bits(v))
	}

	return b
}

func TestNewWriterNewReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	data := f32bytes(1, 2, 3, 4)
	require.NoError(t, w.AddBlob("weights", data, Float32, []int{4}, archive.WithErrorLimit(0)))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	blob, err := r.BlobByName("weights")
	require.NoError(t, err)

	got, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestOpen_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.tsar")

	f, err := os.Create(path)
	require.NoError(t, err)

	w := NewWriter(f)
	require.NoError(t, w.AddFile("readme.txt", bytes.NewReader([]byte("hi"))))
	require.NoError(t, w.Finish())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)

	defer r.Close()

	assert.Equal(t, []string{"readme.txt"}, r.FileNames())
}
