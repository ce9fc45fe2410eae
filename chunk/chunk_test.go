package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/etype"
)

func TestSum_Deterministic(t *testing.T) {
	a := Sum([]byte("payload"))
	b := Sum([]byte("payload"))
	c := Sum([]byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestID_Path(t *testing.T) {
	id := Sum([]byte("x"))
	assert.Equal(t, ".tsar/chunks/"+string(id), id.Path())
}

func TestDescriptor_ByteLength(t *testing.T) {
	d := Descriptor{Type: etype.Float32, Shape: []int{4, 8}}
	assert.Equal(t, int64(4*8*4), d.ByteLength())
}

func TestStore_DedupsIdenticalPayloads(t *testing.T) {
	s := NewStore()

	id1, isNew1 := s.Put([]byte("abc"))
	assert.True(t, isNew1)

	id2, isNew2 := s.Put([]byte("abc"))
	assert.False(t, isNew2)
	assert.Equal(t, id1, id2)

	_, isNew3 := s.Put([]byte("xyz"))
	assert.True(t, isNew3)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(id1))
}

func TestWrite_SkipsDuplicateChunksAcrossBlobs(t *testing.T) {
	store := NewStore()
	chain := codec.Chain{codec.TagSplitF32, codec.TagZstd}

	desc1, emit1 := Write(store, "a", etype.Float32, []int{4}, chain, [][]byte{[]byte("exp"), []byte("mant")})
	require.Len(t, emit1, 2)
	assert.Len(t, desc1.ChunkIDs, 2)

	// Second blob reuses the exact same two chunk payloads.
	desc2, emit2 := Write(store, "b", etype.Float32, []int{4}, chain, [][]byte{[]byte("exp"), []byte("mant")})
	assert.Empty(t, emit2)
	assert.Equal(t, desc1.ChunkIDs, desc2.ChunkIDs)
}

func TestWrite_EmptyChainMarkedForContainerDeflate(t *testing.T) {
	store := NewStore()

	_, emit := Write(store, "raw", etype.Byte, []int{10}, codec.Chain{}, [][]byte{[]byte("raw bytes")})
	require.Len(t, emit, 1)
	assert.True(t, emit[0].Deflate)
}

func TestLookup_MissingChunkReturnsError(t *testing.T) {
	desc := Descriptor{Name: "b", ChunkIDs: []ID{Sum([]byte("missing"))}}

	_, err := Lookup(desc, func(ID) ([]byte, bool) { return nil, false })
	require.Error(t, err)
}

func TestLookup_ResolvesInOrder(t *testing.T) {
	id1 := Sum([]byte("one"))
	id2 := Sum([]byte("two"))
	desc := Descriptor{Name: "b", ChunkIDs: []ID{id1, id2}}

	data := map[ID][]byte{id1: []byte("one"), id2: []byte("two")}
	out, err := Lookup(desc, func(id ID) ([]byte, bool) { v, ok := data[id]; return v, ok })
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, out)
}
