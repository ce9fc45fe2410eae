// Package chunk implements tsar's content-addressed chunk store (spec
// §4.6/§4.7): hashing stage outputs to a stable ID, deduplicating identical
// payloads within one archive, and recording each blob's chain identity and
// shape alongside its ordered chunk IDs. Grounded on the id/dedup-set design
// of a block deduplicator from the retrieval pack, simplified from that
// library's streaming multi-block-size machinery down to tsar's batch,
// whole-stream hashing need.
package chunk

import (
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary (spec §4.6)
	"encoding/base64"

	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/etype"
)

// ID is a chunk's content address: base64url(SHA1(payload)) (spec §4.6
// step 1). SHA-1 collision is treated as impossible for tsar's domain, the
// same assumption the teacher's dedup writer makes for its block index.
type ID string

// Sum computes the ID for payload.
func Sum(payload []byte) ID {
	h := sha1.Sum(payload) //nolint:gosec

	return ID(base64.RawURLEncoding.EncodeToString(h[:]))
}

// Path returns the namespaced container path a chunk with this ID is stored
// under (spec §6's ".tsar/chunks/<hash>").
func (id ID) Path() string {
	return ".tsar/chunks/" + string(id)
}

// Descriptor records one blob's placement in the archive: its element type,
// shape, the compression chain applied, and the ordered chunk IDs holding
// its (possibly fan-out) stage outputs (spec §4.6 step 4).
type Descriptor struct {
	Name     string
	Type     etype.Type
	Shape    []int
	Chain    codec.Chain
	ChunkIDs []ID

	// TargetFile and TargetOffset are set when the blob scatters into a
	// named raw file (spec §6). They are placement metadata only: the blob's
	// chunks are stored through the normal chunk path either way.
	TargetFile   string
	TargetOffset int64
}

// ByteLength returns the product of Shape times Type's byte width — the
// blob's declared uncompressed size (spec §3).
func (d Descriptor) ByteLength() int64 {
	n := int64(d.Type.ByteWidth())
	for _, dim := range d.Shape {
		n *= int64(dim)
	}

	return n
}
