package chunk

import (
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/etype"
)

// Emission is one chunk object the caller must write into the container,
// paired with whether it should be stored compressed by the container
// itself or left as-is (spec §4.6 step 2: "container-level compression iff
// the chain is empty ... stored otherwise, chain already compressed").
type Emission struct {
	ID        ID
	Payload   []byte
	Deflate   bool // true: compress at the container level (chain was empty)
	Composite int  // position within the blob's chunk_ids (spec §4.6 step 3)
}

// Write registers a blob's chain outputs with the Store and returns both the
// Descriptor to record in the bundle's metadata and the set of Emissions
// the caller must actually write into the container (skipping payloads
// already deduplicated against an earlier blob).
func Write(store *Store, name string, t etype.Type, shape []int, chain codec.Chain, outputs [][]byte) (Descriptor, []Emission) {
	desc := Descriptor{
		Name:     name,
		Type:     t,
		Shape:    append([]int(nil), shape...),
		Chain:    append(codec.Chain(nil), chain...),
		ChunkIDs: make([]ID, len(outputs)),
	}

	var toEmit []Emission

	for i, payload := range outputs {
		id, isNew := store.Put(payload)
		desc.ChunkIDs[i] = id

		if isNew {
			toEmit = append(toEmit, Emission{
				ID:        id,
				Payload:   payload,
				Deflate:   len(chain) == 0,
				Composite: i,
			})
		}
	}

	return desc, toEmit
}
