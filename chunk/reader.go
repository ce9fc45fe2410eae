package chunk

import (
	"fmt"

	"github.com/brian14708/tsar/errs"
)

// Lookup resolves a Descriptor's chunk IDs against a source of chunk bytes
// keyed by ID (typically the archive's container), returning the ordered
// byte-vector list a pipeline.Decompress call expects (spec §4.7 step 2).
// Each payload must hash to the ID it was looked up under.
func Lookup(desc Descriptor, source func(ID) ([]byte, bool)) ([][]byte, error) {
	out := make([][]byte, len(desc.ChunkIDs))

	for i, id := range desc.ChunkIDs {
		payload, ok := source(id)
		if !ok {
			return nil, fmt.Errorf("chunk: blob %q: %w: %s", desc.Name, errs.ErrMissingChunk, id)
		}

		if Sum(payload) != id {
			return nil, fmt.Errorf("chunk: blob %q: %w: %s", desc.Name, errs.ErrChunkHashMismatch, id)
		}

		out[i] = payload
	}

	return out, nil
}
