package archive

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/brian14708/tsar/chunk"
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// Bundle is tsar's archive-wide metadata record (spec §6): the raw files
// and blobs an archive holds, serialized as a compact tag-length-value
// binary encoding. Grounded on the original implementation's use of
// protobuf for this exact record; tsar encodes the same wire shape by hand
// with protobuf's own low-level field-writing primitives rather than a
// codegen'd message type, since no .proto schema travelled with the
// retrieved reference sources. Field numbers below are this port's own
// choice (see DESIGN.md).
type Bundle struct {
	RawFiles []string
	Blobs    []chunk.Descriptor
}

// Field numbers for the Bundle message and its nested Blob message.
const (
	fieldBundleRawFile = 1
	fieldBundleBlob    = 2

	fieldBlobName         = 1
	fieldBlobDataType     = 2
	fieldBlobDim          = 3
	fieldBlobStage        = 4
	fieldBlobChunkID      = 5
	fieldBlobTargetFile   = 6
	fieldBlobTargetOffset = 7
)

// Marshal serializes b to its wire form.
func (b Bundle) Marshal() []byte {
	var out []byte

	for _, name := range b.RawFiles {
		msg := marshalRawFile(name)
		out = protowire.AppendTag(out, fieldBundleRawFile, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}

	for _, blob := range b.Blobs {
		msg := marshalBlob(blob)
		out = protowire.AppendTag(out, fieldBundleBlob, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}

	return out
}

func marshalRawFile(name string) []byte {
	var out []byte

	out = protowire.AppendTag(out, fieldBlobName, protowire.BytesType)
	out = protowire.AppendString(out, name)

	return out
}

func marshalBlob(d chunk.Descriptor) []byte {
	var out []byte

	out = protowire.AppendTag(out, fieldBlobName, protowire.BytesType)
	out = protowire.AppendString(out, d.Name)

	out = protowire.AppendTag(out, fieldBlobDataType, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(d.Type))

	for _, dim := range d.Shape {
		out = protowire.AppendTag(out, fieldBlobDim, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(dim))
	}

	for _, tag := range d.Chain {
		out = protowire.AppendTag(out, fieldBlobStage, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(tag))
	}

	for _, id := range d.ChunkIDs {
		out = protowire.AppendTag(out, fieldBlobChunkID, protowire.BytesType)
		out = protowire.AppendString(out, string(id))
	}

	if d.TargetFile != "" {
		out = protowire.AppendTag(out, fieldBlobTargetFile, protowire.BytesType)
		out = protowire.AppendString(out, d.TargetFile)

		out = protowire.AppendTag(out, fieldBlobTargetOffset, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(d.TargetOffset))
	}

	return out
}

// UnmarshalBundle parses a Bundle from its wire form.
func UnmarshalBundle(data []byte) (Bundle, error) {
	var b Bundle

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Bundle{}, fmt.Errorf("archive: bundle: %w", errs.ErrNotAnArchive)
		}
		data = data[n:]

		val, n := protowire.ConsumeBytes(data)
		if typ != protowire.BytesType || n < 0 {
			return Bundle{}, fmt.Errorf("archive: bundle: %w", errs.ErrNotAnArchive)
		}
		data = data[n:]

		switch num {
		case fieldBundleRawFile:
			name, err := unmarshalRawFile(val)
			if err != nil {
				return Bundle{}, err
			}

			b.RawFiles = append(b.RawFiles, name)
		case fieldBundleBlob:
			blob, err := unmarshalBlob(val)
			if err != nil {
				return Bundle{}, err
			}

			b.Blobs = append(b.Blobs, blob)
		}
	}

	return b, nil
}

func unmarshalRawFile(data []byte) (string, error) {
	var name string

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", fmt.Errorf("archive: raw_file: %w", errs.ErrNotAnArchive)
		}
		data = data[n:]

		switch {
		case num == fieldBlobName && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return "", fmt.Errorf("archive: raw_file: %w", errs.ErrNotAnArchive)
			}
			name = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return "", fmt.Errorf("archive: raw_file: %w", errs.ErrNotAnArchive)
			}
			data = data[n:]
		}
	}

	return name, nil
}

func unmarshalBlob(data []byte) (chunk.Descriptor, error) {
	var d chunk.Descriptor

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return chunk.Descriptor{}, fmt.Errorf("archive: blob: %w", errs.ErrNotAnArchive)
		}
		data = data[n:]

		switch num {
		case fieldBlobName:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.name: %w", errs.ErrNotAnArchive)
			}
			d.Name = string(v)
			data = data[n:]
		case fieldBlobDataType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.data_type: %w", errs.ErrNotAnArchive)
			}
			d.Type = etype.Type(v)
			data = data[n:]
		case fieldBlobDim:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.dim: %w", errs.ErrNotAnArchive)
			}
			d.Shape = append(d.Shape, int(v))
			data = data[n:]
		case fieldBlobStage:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.stage: %w", errs.ErrNotAnArchive)
			}
			d.Chain = append(d.Chain, codec.Tag(v))
			data = data[n:]
		case fieldBlobChunkID:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.chunk_id: %w", errs.ErrNotAnArchive)
			}
			d.ChunkIDs = append(d.ChunkIDs, chunk.ID(v))
			data = data[n:]
		case fieldBlobTargetFile:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.target_file: %w", errs.ErrNotAnArchive)
			}
			d.TargetFile = string(v)
			data = data[n:]
		case fieldBlobTargetOffset:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob.target_offset: %w", errs.ErrNotAnArchive)
			}
			d.TargetOffset = int64(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return chunk.Descriptor{}, fmt.Errorf("archive: blob: unknown field %d: %w", num, errs.ErrNotAnArchive)
			}
			data = data[n:]
		}
	}

	return d, nil
}
