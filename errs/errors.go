// Package errs defines the sentinel errors returned across tsar. Callers
// compare against these with errors.Is; wrapped context (file names, offsets)
// is added with fmt.Errorf("...: %w", errs.ErrXxx) at the call site rather
// than baked into the sentinel itself.
package errs

import "errors"

// Container errors (§7): malformed archive, missing metadata, missing chunk.
var (
	// ErrNotAnArchive is returned when the opened source isn't a valid ZIP
	// container. A missing bundle metadata entry is ErrMissingMetadata.
	ErrNotAnArchive = errors.New("tsar: not a tsar archive")
	// ErrMissingMetadata is returned when the container has no ".tsar/bundle" entry.
	ErrMissingMetadata = errors.New("tsar: archive missing bundle metadata entry")
	// ErrMissingChunk is returned when a blob descriptor references a chunk ID
	// that has no corresponding entry in the container.
	ErrMissingChunk = errors.New("tsar: referenced chunk missing from archive")
	// ErrChunkHashMismatch is returned when a stored chunk's bytes do not hash
	// to the chunk ID under which they are stored.
	ErrChunkHashMismatch = errors.New("tsar: chunk payload does not match its content hash")
)

// Metadata errors (§7): unrecognized stage tag/element type, duplicate name.
var (
	// ErrUnknownStageTag is returned when a blob's compression chain contains
	// a stage tag this build doesn't recognize. The reader rejects only the
	// offending blob, not the whole archive (§7).
	ErrUnknownStageTag = errors.New("tsar: unknown compression stage tag")
	// ErrUnknownElementType is returned for an unrecognized element type tag.
	ErrUnknownElementType = errors.New("tsar: unknown element type")
	// ErrDuplicateName is returned when add_file or add_blob is called with a
	// name already present in the archive (raw files and blobs share one
	// namespace per spec §3/§6).
	ErrDuplicateName = errors.New("tsar: duplicate file or blob name")
	// ErrNotFound is returned when a lookup by name finds nothing.
	ErrNotFound = errors.New("tsar: name not found in archive")
)

// Input errors (§7): misaligned length, shape/length mismatch, fan-out mismatch.
var (
	// ErrMisalignedLength is returned by add_blob when len(bytes) is not a
	// multiple of the element type's byte width (§6).
	ErrMisalignedLength = errors.New("tsar: blob byte length not a multiple of element width")
	// ErrShapeMismatch is returned when the shape's element-count product
	// disagrees with the byte length implied by it.
	ErrShapeMismatch = errors.New("tsar: shape does not match byte length")
	// ErrEmptyShape is returned for a shape with zero dimensions or any
	// non-positive dimension.
	ErrEmptyShape = errors.New("tsar: shape must have only positive dimensions")
	// ErrFanOutMismatch is returned when a stage chain's declared fan-out does
	// not match the number of streams actually produced or consumed.
	ErrFanOutMismatch = errors.New("tsar: stage fan-out mismatch")
	// ErrInvalidErrorLimit is returned by WithErrorLimit for a negative eps.
	ErrInvalidErrorLimit = errors.New("tsar: error limit must be non-negative")
	// ErrInvalidScatterTarget is returned by WithScatter for an empty target
	// file name.
	ErrInvalidScatterTarget = errors.New("tsar: scatter target file name must not be empty")
)

// Codec errors (§7): lossy stage failure, decode length mismatch.
var (
	// ErrCodecFailed is returned when a stage's encode or decode step fails
	// internally (e.g. a corrupt ZFP header/body).
	ErrCodecFailed = errors.New("tsar: codec stage failed")
	// ErrDecodedLengthMismatch is returned when a decode pass's final output
	// length differs from the blob's declared byte length.
	ErrDecodedLengthMismatch = errors.New("tsar: decoded length does not match declared blob length")
	// ErrUndefinedMetric is returned internally when the error metric cannot
	// be computed (e.g. due to NaN or misaligned buffers); it never escapes
	// the policy package, which treats it as "reject this chain".
	ErrUndefinedMetric = errors.New("tsar: error metric undefined for these inputs")
)

// Policy errors (§7, non-fatal): no candidate chain satisfies the error budget.
var (
	// ErrNoChainAccepted names the case where every candidate chain is
	// rejected. policy.Select does not return it: it falls back to the empty
	// (raw) chain instead.
	ErrNoChainAccepted = errors.New("tsar: no candidate compression chain met the error budget")
)

// Writer/lifecycle errors.
var (
	// ErrArchiveFinished is returned by any add_* call made after Finish.
	ErrArchiveFinished = errors.New("tsar: writer already finished")
	// ErrArchiveClosed names a reader access made after Close. Reader does
	// not track whether it is closed and never returns it; after Close, reads
	// of an archive opened with Open fail with the underlying file error.
	ErrArchiveClosed = errors.New("tsar: reader already closed")
	// ErrScatterNotContiguous is returned by Finish when the optional
	// contiguity check (§9) is enabled and a target file's scatter ranges
	// overlap or leave a gap.
	ErrScatterNotContiguous = errors.New("tsar: scatter ranges for target file are not contiguous")
)
