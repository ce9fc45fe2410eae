package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/brian14708/tsar/chunk"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
	"github.com/brian14708/tsar/pipeline"
)

// Reader opens a tsar archive for read access: it parses the bundle
// metadata eagerly, but only materializes a blob's bytes (resolving its
// chunks and running the decompress pipeline) on first access, caching the
// result thereafter (spec §4.7). Grounded on the original implementation's
// Archive type.
type Reader struct {
	zr     *zip.Reader
	closer io.Closer
	meta   Bundle

	blobIndex map[string]int

	// blobMu serializes blob materialization: the ZIP back-end does not
	// support concurrent random access, and Bytes' cache check-then-store
	// sequence is not otherwise safe for concurrent callers (spec §5).
	blobMu    sync.Mutex
	blobCache map[string][]byte
}

// Open opens the archive stored at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("archive: stat %q: %w", path, err)
	}

	r, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()

		return nil, err
	}

	r.closer = f

	return r, nil
}

// NewReader parses an archive from ra, which must support random access
// (spec §6's ZIP container requires a central directory seek).
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("archive: %w: %w", errs.ErrNotAnArchive, err)
	}

	var metaFile *zip.File

	for _, f := range zr.File {
		if f.Name == metadataEntryName {
			metaFile = f

			break
		}
	}

	if metaFile == nil {
		return nil, errs.ErrMissingMetadata
	}

	rc, err := metaFile.Open()
	if err != nil {
		return nil, fmt.Errorf("archive: open bundle metadata: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archive: read bundle metadata: %w", err)
	}

	meta, err := UnmarshalBundle(raw)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		zr:        zr,
		meta:      meta,
		blobIndex: make(map[string]int, len(meta.Blobs)),
		blobCache: make(map[string][]byte),
	}

	for i, b := range meta.Blobs {
		r.blobIndex[b.Name] = i
	}

	return r, nil
}

// FileNames returns the archive's raw file names in storage order.
func (r *Reader) FileNames() []string {
	return append([]string(nil), r.meta.RawFiles...)
}

// BlobNames returns the archive's blob names in storage order: the order
// Writer.Finish left them in, which is by name except that blobs sharing a
// scatter target are ordered among themselves by target offset.
func (r *Reader) BlobNames() []string {
	names := make([]string, len(r.meta.Blobs))
	for i, b := range r.meta.Blobs {
		names[i] = b.Name
	}

	return names
}

// FileByName opens a raw file's content for streaming read.
func (r *Reader) FileByName(name string) (io.ReadCloser, error) {
	f, err := r.zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("archive: file %q: %w", name, errs.ErrNotFound)
	}

	return f, nil
}

// BlobByName returns a handle to the named blob's metadata. Its byte
// content is only decoded (and any unknown-stage-tag error surfaced) when
// Bytes is first called, so one malformed blob never prevents access to the
// archive's other blobs (spec §7).
func (r *Reader) BlobByName(name string) (*Blob, error) {
	idx, ok := r.blobIndex[name]
	if !ok {
		return nil, fmt.Errorf("archive: blob %q: %w", name, errs.ErrNotFound)
	}

	return &Blob{r: r, desc: r.meta.Blobs[idx]}, nil
}

// Close releases the underlying file handle, if one was opened via Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

func (r *Reader) chunkBytes(id chunk.ID) ([]byte, bool) {
	f, err := r.zr.Open(id.Path())
	if err != nil {
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Blob is a read handle to one archive blob: its shape and type are
// available immediately; its decoded bytes are materialized lazily.
type Blob struct {
	r    *Reader
	desc chunk.Descriptor
}

// Name returns the blob's name.
func (b *Blob) Name() string { return b.desc.Name }

// Type returns the blob's element type.
func (b *Blob) Type() etype.Type { return b.desc.Type }

// Shape returns the blob's dimension sequence.
func (b *Blob) Shape() []int { return append([]int(nil), b.desc.Shape...) }

// ByteLength returns the blob's declared uncompressed size.
func (b *Blob) ByteLength() int64 { return b.desc.ByteLength() }

// TargetFile returns the raw file name and byte offset this blob scatters
// into, if it was written with WithScatter.
func (b *Blob) TargetFile() (name string, offset int64, ok bool) {
	if b.desc.TargetFile == "" {
		return "", 0, false
	}

	return b.desc.TargetFile, b.desc.TargetOffset, true
}

// Bytes resolves the blob's chunk IDs against the archive and runs the
// decompress pipeline, caching the result on the owning Reader so repeated
// calls are free (spec §4.7).
func (b *Blob) Bytes() ([]byte, error) {
	b.r.blobMu.Lock()
	defer b.r.blobMu.Unlock()

	if cached, ok := b.r.blobCache[b.desc.Name]; ok {
		return cached, nil
	}

	outputs, err := chunk.Lookup(b.desc, b.r.chunkBytes)
	if err != nil {
		return nil, err
	}

	data, err := pipeline.Decompress(outputs, b.desc.Type, b.desc.Shape, b.desc.Chain)
	if err != nil {
		return nil, fmt.Errorf("archive: blob %q: %w", b.desc.Name, err)
	}

	if int64(len(data)) != b.desc.ByteLength() {
		return nil, fmt.Errorf("archive: blob %q: %w", b.desc.Name, errs.ErrDecodedLengthMismatch)
	}

	b.r.blobCache[b.desc.Name] = data

	return data, nil
}
