package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian14708/tsar/chunk"
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

func f32bytes(vs ...float32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], math.Float32bits(v))
	}

	return b
}

func TestWriterReader_FileAndBlobRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddFile("readme.txt", bytes.NewReader([]byte("hello"))))

	data := f32bytes(1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, w.AddBlob("w", data, etype.Float32, []int{8}))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	assert.Equal(t, []string{"readme.txt"}, r.FileNames())
	assert.Equal(t, []string{"w"}, r.BlobNames())

	fr, err := r.FileByName("readme.txt")
	require.NoError(t, err)

	defer fr.Close()

	got := make([]byte, 5)
	_, err = fr.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	blob, err := r.BlobByName("w")
	require.NoError(t, err)
	assert.Equal(t, etype.Float32, blob.Type())
	assert.Equal(t, []int{8}, blob.Shape())
	assert.Equal(t, int64(32), blob.ByteLength())

	back, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, back)

	// Second call is served from cache and still correct.
	back2, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, back2)
}

func TestWriter_DuplicateNameRejected(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddFile("a", bytes.NewReader(nil)))

	err := w.AddBlob("a", f32bytes(1), etype.Float32, []int{1})
	require.ErrorIs(t, err, errs.ErrDuplicateName)
}

func TestWriter_MisalignedLengthRejected(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	err := w.AddBlob("t", make([]byte, 15), etype.Float32, []int{4})
	require.ErrorIs(t, err, errs.ErrMisalignedLength)
}

func TestWriter_ShapeMismatchRejected(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	err := w.AddBlob("t", f32bytes(1, 2, 3, 4), etype.Float32, []int{3})
	require.ErrorIs(t, err, errs.ErrShapeMismatch)
}

func TestWriter_DeduplicatesIdenticalBlobPayloads(t *testing.T) {
	var buf bytes.Buffer

	data := f32bytes(1, 2, 3, 4)

	w := NewWriter(&buf)
	require.NoError(t, w.AddBlob("a", data, etype.Float32, []int{4}, WithErrorLimit(0)))
	require.NoError(t, w.AddBlob("b", data, etype.Float32, []int{4}, WithErrorLimit(0)))
	require.NoError(t, w.Finish())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	const chunkPrefix = ".tsar/chunks/"

	chunkEntries := 0

	for _, f := range zr.File {
		if len(f.Name) > len(chunkPrefix) && f.Name[:len(chunkPrefix)] == chunkPrefix {
			chunkEntries++
		}
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	a, err := r.BlobByName("a")
	require.NoError(t, err)
	b, err := r.BlobByName("b")
	require.NoError(t, err)

	aBytes, err := a.Bytes()
	require.NoError(t, err)
	bBytes, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, aBytes, bBytes)

	// Both blobs decode to the same payload through the same chain, so they
	// share every chunk ID; the container holds each distinct chunk once.
	assert.Equal(t, a.desc.ChunkIDs, b.desc.ChunkIDs)
	assert.Equal(t, len(a.desc.ChunkIDs), chunkEntries)
}

func TestWriter_ScatterMetadataRoundTrips(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddFile("packed.bin", bytes.NewReader(make([]byte, 64))))
	require.NoError(t, w.AddBlob("s", f32bytes(1, 2, 3, 4), etype.Float32, []int{4}, WithScatter("packed.bin", 16)))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	blob, err := r.BlobByName("s")
	require.NoError(t, err)

	name, offset, ok := blob.TargetFile()
	assert.True(t, ok)
	assert.Equal(t, "packed.bin", name)
	assert.Equal(t, int64(16), offset)
}

func TestWriter_ScatterContiguityCheckRejectsGap(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, WithScatterContiguityCheck())
	require.NoError(t, w.AddFile("packed.bin", bytes.NewReader(make([]byte, 64))))
	require.NoError(t, w.AddBlob("s", f32bytes(1, 2, 3, 4), etype.Float32, []int{4}, WithScatter("packed.bin", 16)))

	err := w.Finish()
	require.ErrorIs(t, err, errs.ErrScatterNotContiguous)
}

func TestWriter_ScatterContiguityCheckAcceptsTiling(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf, WithScatterContiguityCheck())
	require.NoError(t, w.AddFile("packed.bin", bytes.NewReader(make([]byte, 32))))
	require.NoError(t, w.AddBlob("a", f32bytes(1, 2, 3, 4), etype.Float32, []int{4}, WithScatter("packed.bin", 0)))
	require.NoError(t, w.AddBlob("b", f32bytes(5, 6, 7, 8), etype.Float32, []int{4}, WithScatter("packed.bin", 16)))

	require.NoError(t, w.Finish())
}

func TestReader_FixedCommentAndMetadataEntryName(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddBlob("t", f32bytes(1), etype.Float32, []int{1}))
	require.NoError(t, w.Finish())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	assert.Equal(t, Comment(), zr.Comment)

	found := false

	for _, f := range zr.File {
		if f.Name == metadataEntryName {
			found = true
		}
	}

	assert.True(t, found)
}

// TestReader_UnknownStageTagRejectsOnlyThatBlob hand-builds a bundle with a
// blob whose compression chain references a stage tag this build does not
// register, then verifies the archive still opens and its other blob is
// still readable (spec §7: a reader rejects only the offending blob).
func TestReader_UnknownStageTagRejectsOnlyThatBlob(t *testing.T) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	zw.SetComment(Comment())

	good := chunk.Descriptor{
		Name:     "good",
		Type:     etype.Float32,
		Shape:    []int{4},
		ChunkIDs: []chunk.ID{chunk.Sum(f32bytes(1, 2, 3, 4))},
	}

	bad := chunk.Descriptor{
		Name:     "bad",
		Type:     etype.Float32,
		Shape:    []int{4},
		Chain:    codec.Chain{codec.Tag(250)},
		ChunkIDs: []chunk.ID{chunk.Sum([]byte("unknown-stage-payload"))},
	}

	for _, d := range []chunk.Descriptor{good, bad} {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: d.ChunkIDs[0].Path(), Method: zip.Store})
		require.NoError(t, err)

		var payload []byte
		if d.Name == "good" {
			payload = f32bytes(1, 2, 3, 4)
		} else {
			payload = []byte("unknown-stage-payload")
		}

		_, err = fw.Write(payload)
		require.NoError(t, err)
	}

	meta := Bundle{Blobs: []chunk.Descriptor{bad, good}}

	mw, err := zw.CreateHeader(&zip.FileHeader{Name: metadataEntryName, Method: zip.Store})
	require.NoError(t, err)
	_, err = mw.Write(meta.Marshal())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	goodBlob, err := r.BlobByName("good")
	require.NoError(t, err)
	gotBytes, err := goodBlob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, f32bytes(1, 2, 3, 4), gotBytes)

	badBlob, err := r.BlobByName("bad")
	require.NoError(t, err)
	_, err = badBlob.Bytes()
	require.ErrorIs(t, err, errs.ErrUnknownStageTag)
}

func TestWriter_AddBlobStream_RoundTripsThroughStreamingGraph(t *testing.T) {
	data := f32bytes(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	chain := codec.Chain{codec.TagSplitF32, codec.TagZstd}

	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddBlobStream("w", bytes.NewReader(data), etype.Float32, []int{10}, chain))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	blob, err := r.BlobByName("w")
	require.NoError(t, err)
	assert.Equal(t, chain, blob.desc.Chain)

	back, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestWriter_AddBlobStream_PlainZstdRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("streamed-content "), 1000)

	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddBlobStream("blob", bytes.NewReader(data), etype.Byte, []int{len(data)}, codec.Chain{codec.TagZstd}))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	blob, err := r.BlobByName("blob")
	require.NoError(t, err)
	back, err := blob.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestWriter_AddBlobStream_RejectsDuplicateAndLengthMismatch(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddFile("a", bytes.NewReader(nil)))

	err := w.AddBlobStream("a", bytes.NewReader(f32bytes(1)), etype.Float32, []int{1}, codec.Chain{codec.TagZstd})
	require.ErrorIs(t, err, errs.ErrDuplicateName)

	// declared shape calls for 16 bytes (4 float32s) but r only yields 15:
	// the streamed path can't check this until the whole input has been
	// drained, unlike AddBlob's upfront len(bytes) check.
	err = w.AddBlobStream("t", bytes.NewReader(make([]byte, 15)), etype.Float32, []int{4}, codec.Chain{codec.TagZstd})
	require.ErrorIs(t, err, errs.ErrShapeMismatch)
}

func TestWriter_ScatterGroupSortedByOffsetWithinTarget(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	require.NoError(t, w.AddFile("packed.bin", bytes.NewReader(make([]byte, 32))))
	// Name order puts "a_second" before "z_first", but both blobs scatter
	// into the same target, so their relative order must follow offset, not
	// name.
	require.NoError(t, w.AddBlob("a_second", f32bytes(5, 6, 7, 8), etype.Float32, []int{4}, WithScatter("packed.bin", 16)))
	require.NoError(t, w.AddBlob("z_first", f32bytes(1, 2, 3, 4), etype.Float32, []int{4}, WithScatter("packed.bin", 0)))
	require.NoError(t, w.Finish())

	var offsets []int64
	for _, b := range w.meta.Blobs {
		if b.TargetFile == "packed.bin" {
			offsets = append(offsets, b.TargetOffset)
		}
	}
	assert.Equal(t, []int64{0, 16}, offsets)
}

func TestWriterOptions_InvalidInputsUseDedicatedSentinels(t *testing.T) {
	_, err := newBlobOptions(WithErrorLimit(-1))
	require.ErrorIs(t, err, errs.ErrInvalidErrorLimit)
	require.NotErrorIs(t, err, errs.ErrEmptyShape)

	_, err = newBlobOptions(WithScatter("", 0))
	require.ErrorIs(t, err, errs.ErrInvalidScatterTarget)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestBundle_MarshalUnmarshalRoundTrip(t *testing.T) {
	b := Bundle{
		RawFiles: []string{"a.bin", "b.bin"},
		Blobs: []chunk.Descriptor{
			{
				Name:     "x",
				Type:     etype.Float32,
				Shape:    []int{2, 3},
				Chain:    codec.Chain{codec.TagSplitF32, codec.TagZstd},
				ChunkIDs: []chunk.ID{chunk.Sum([]byte("e")), chunk.Sum([]byte("m"))},
			},
			{
				Name:         "y",
				Type:         etype.Byte,
				Shape:        []int{4},
				ChunkIDs:     []chunk.ID{chunk.Sum([]byte("raw"))},
				TargetFile:   "packed.bin",
				TargetOffset: 128,
			},
		},
	}

	raw := b.Marshal()

	got, err := UnmarshalBundle(raw)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}
