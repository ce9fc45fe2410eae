// Package tsar provides a container format and compression library for
// bundles of heterogeneous numeric tensors ("blobs") alongside opaque raw
// files.
//
// A producer adds named files and named typed blobs (a byte sequence with
// an element type and a multidimensional shape); a consumer lists them,
// retrieves files verbatim, and materializes blobs either as a byte stream
// or by scattering their bytes into a declared offset of a declared output
// file. The archive is self-describing (metadata is embedded in the
// container) and content-addressed (duplicate byte chunks are
// deduplicated).
//
// # Core Features
//
//   - Reversible byte-transform compression stages (entropy coding, float
//     narrowing, bit-plane splitting, delta/XOR prediction, a lossy
//     fixed-accuracy tensor coder) composed into per-blob chains
//   - Auto-tuning selection policy: probes candidate chains on a bounded
//     head of each blob, ranks survivors by encoded size, and re-validates
//     the winner against the caller's error budget before committing
//   - Streaming multi-stream operator graph for processing blobs that do
//     not fit in memory
//   - Content-addressed chunk deduplication across an entire archive
//   - A ZIP-based container with a reserved, self-describing bundle
//     metadata entry
//
// # Basic Usage
//
// Writing an archive:
//
//	import "github.com/brian14708/tsar/archive"
//
//	f, _ := os.Create("bundle.tsar")
//	w := archive.NewWriter(f)
//	w.AddFile("README.md", strings.NewReader("..."))
//	w.AddBlob("weights", weightBytes, etype.Float32, []int{1024, 768},
//	    archive.WithErrorLimit(1e-3),
//	)
//	w.Finish()
//
// Reading one back:
//
//	r, _ := archive.Open("bundle.tsar")
//	defer r.Close()
//	blob, _ := r.BlobByName("weights")
//	data, _ := blob.Bytes()
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the archive
// package, simplifying the most common use cases. For advanced usage and
// fine-grained control — custom selection policies, the streaming operator
// graph, or direct compression-stage composition — use the archive, policy,
// stream, and codec packages directly.
package tsar

import (
	"io"

	"github.com/brian14708/tsar/archive"
	"github.com/brian14708/tsar/etype"
)

// NewWriter starts a new archive written to sink. See archive.NewWriter for
// the full set of construction options.
func NewWriter(sink io.Writer, opts ...archive.WriterOption) *archive.Writer {
	return archive.NewWriter(sink, opts...)
}

// Open opens the archive stored at path for read access.
func Open(path string) (*archive.Reader, error) {
	return archive.Open(path)
}

// NewReader parses an archive from ra, which must support random access.
func NewReader(ra io.ReaderAt, size int64) (*archive.Reader, error) {
	return archive.NewReader(ra, size)
}

// Element type aliases, re-exported for callers that only need the tsar
// package import.
const (
	Byte     = etype.Byte
	Int8     = etype.Int8
	Int16    = etype.Int16
	Int32    = etype.Int32
	Int64    = etype.Int64
	Uint8    = etype.Uint8
	Uint16   = etype.Uint16
	Uint32   = etype.Uint32
	Uint64   = etype.Uint64
	Float16  = etype.Float16
	Float32  = etype.Float32
	Float64  = etype.Float64
	BFloat16 = etype.BFloat16
)
