package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"

	"github.com/brian14708/tsar/chunk"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
	"github.com/brian14708/tsar/policy"
)

// Writer assembles a tsar archive: raw files written verbatim and blobs
// compressed through a Policy, deduplicated, and recorded in the bundle
// metadata. Grounded on the original implementation's Builder type, adapted
// from its zip::write::ZipWriter + protobuf Bundle + chunk HashSet trio onto
// archive/zip + the protowire Bundle codec + chunk.Store.
type Writer struct {
	zw     *zip.Writer
	store  *chunk.Store
	policy *policy.Policy
	names  map[string]struct{}
	meta   Bundle

	checkScatter bool
	finished     bool
}

// WriterOption configures a Writer at construction.
type WriterOption func(*Writer)

// WithPolicy overrides the Policy used to select each blob's compression
// chain. The default is policy.New() with its built-in candidate table.
func WithPolicy(p *policy.Policy) WriterOption {
	return func(w *Writer) { w.policy = p }
}

// WithScatterContiguityCheck enables Finish's optional verification that,
// per target file, every blob's scatter range is contiguous and
// non-overlapping (spec §9's resolved Open Question: off by default since
// the format does not require it, but cheap to opt into).
func WithScatterContiguityCheck() WriterOption {
	return func(w *Writer) { w.checkScatter = true }
}

// NewWriter starts a new archive written to sink.
func NewWriter(sink io.Writer, opts ...WriterOption) *Writer {
	zw := zip.NewWriter(sink)
	zw.SetComment(Comment())

	w := &Writer{
		zw:     zw,
		store:  chunk.NewStore(),
		policy: policy.New(),
		names:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// AddFile copies r's bytes verbatim into the archive under name, with no
// chunking or compression (spec §6). name shares a namespace with blobs.
func (w *Writer) AddFile(name string, r io.Reader) error {
	if w.finished {
		return errs.ErrArchiveFinished
	}

	if err := w.reserveName(name); err != nil {
		return err
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("archive: add file %q: %w", name, err)
	}

	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("archive: add file %q: %w", name, err)
	}

	w.meta.RawFiles = append(w.meta.RawFiles, name)

	return nil
}

// AddBlob selects a compression chain for data under the writer's Policy,
// writes any newly-seen chunk payloads, and records a Blob descriptor in
// the bundle metadata (spec §4.5/§4.6). name shares a namespace with files.
func (w *Writer) AddBlob(name string, data []byte, t etype.Type, shape []int, opts ...BlobOption) error {
	if w.finished {
		return errs.ErrArchiveFinished
	}

	if err := w.reserveName(name); err != nil {
		return err
	}

	if err := validateShape(t, shape, len(data)); err != nil {
		return err
	}

	o, err := newBlobOptions(opts...)
	if err != nil {
		return err
	}

	sel, err := w.policy.Select(data, t, shape, o.errorLimit)
	if err != nil {
		return fmt.Errorf("archive: add blob %q: %w", name, err)
	}

	desc, emissions := chunk.Write(w.store, name, t, shape, sel.Chain, sel.Result.Outputs)

	if o.hasTarget {
		desc.TargetFile = o.targetFile
		desc.TargetOffset = o.targetOffset
	}

	for _, e := range emissions {
		if err := w.writeChunk(e); err != nil {
			return fmt.Errorf("archive: add blob %q: %w", name, err)
		}
	}

	w.meta.Blobs = append(w.meta.Blobs, desc)

	return nil
}

func (w *Writer) writeChunk(e chunk.Emission) error {
	method := zip.Store
	if e.Deflate {
		method = zip.Deflate
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   e.ID.Path(),
		Method: method,
	})
	if err != nil {
		return err
	}

	_, err = fw.Write(e.Payload)

	return err
}

// Finish sorts the recorded blobs by name, writes the serialized Bundle
// into the reserved metadata entry, and closes the underlying ZIP writer
// (spec §6). The Writer must not be used afterward.
func (w *Writer) Finish() error {
	if w.finished {
		return errs.ErrArchiveFinished
	}

	w.finished = true

	sortBlobs(w.meta.Blobs)

	if w.checkScatter {
		if err := checkScatterContiguity(w.meta.Blobs); err != nil {
			return err
		}
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   metadataEntryName,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("archive: write bundle metadata: %w", err)
	}

	if _, err := fw.Write(w.meta.Marshal()); err != nil {
		return fmt.Errorf("archive: write bundle metadata: %w", err)
	}

	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("archive: close: %w", err)
	}

	return nil
}

// sortBlobs orders blobs by name (spec §6), then re-orders the blobs sharing
// each scatter target among themselves by target offset — keeping the same
// set of list positions for that target's blobs, since a random reader only
// needs target-file reconstruction order, not a particular global slot.
func sortBlobs(blobs []chunk.Descriptor) {
	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Name < blobs[j].Name })

	positions := make(map[string][]int)

	for i, b := range blobs {
		if b.TargetFile == "" {
			continue
		}

		positions[b.TargetFile] = append(positions[b.TargetFile], i)
	}

	for _, idxs := range positions {
		group := make([]chunk.Descriptor, len(idxs))
		for k, i := range idxs {
			group[k] = blobs[i]
		}

		sort.Slice(group, func(a, b int) bool { return group[a].TargetOffset < group[b].TargetOffset })

		for k, i := range idxs {
			blobs[i] = group[k]
		}
	}
}

func (w *Writer) reserveName(name string) error {
	if _, ok := w.names[name]; ok {
		return fmt.Errorf("archive: %w: %s", errs.ErrDuplicateName, name)
	}

	w.names[name] = struct{}{}

	return nil
}

// checkScatterContiguity groups blobs by target file and, within each
// group sorted by target offset, verifies the ranges
// [target_offset, target_offset+byte_length) tile the file with no gap or
// overlap (spec §9).
func checkScatterContiguity(blobs []chunk.Descriptor) error {
	byTarget := make(map[string][]chunk.Descriptor)

	for _, b := range blobs {
		if b.TargetFile == "" {
			continue
		}

		byTarget[b.TargetFile] = append(byTarget[b.TargetFile], b)
	}

	for target, group := range byTarget {
		sort.Slice(group, func(i, j int) bool { return group[i].TargetOffset < group[j].TargetOffset })

		want := int64(0)
		for _, b := range group {
			if b.TargetOffset != want {
				return fmt.Errorf("archive: %w: %s", errs.ErrScatterNotContiguous, target)
			}

			want += b.ByteLength()
		}
	}

	return nil
}

func validateShape(t etype.Type, shape []int, byteLen int) error {
	width := t.ByteWidth()
	if width == 0 {
		return fmt.Errorf("archive: %w: %v", errs.ErrUnknownElementType, t)
	}

	if byteLen%width != 0 {
		return fmt.Errorf("archive: %w", errs.ErrMisalignedLength)
	}

	elems := 1
	for _, dim := range shape {
		if dim <= 0 {
			return fmt.Errorf("archive: %w", errs.ErrEmptyShape)
		}

		elems *= dim
	}

	if elems*width != byteLen {
		return fmt.Errorf("archive: %w", errs.ErrShapeMismatch)
	}

	return nil
}
