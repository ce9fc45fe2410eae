package archive

import (
	"fmt"

	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/internal/options"
)

// blobOptions holds the per-blob settings add_blob accepts (spec §4.5's
// error_limit and §6's scatter target), mirroring the teacher's functional-
// options encoder configs.
type blobOptions struct {
	errorLimit   float64
	targetFile   string
	targetOffset int64
	hasTarget    bool
}

// BlobOption configures one AddBlob call.
type BlobOption = options.Option[*blobOptions]

// WithErrorLimit sets the bounded-error budget eps the selection policy must
// satisfy (spec §4.5). The default is 0 (lossless only).
func WithErrorLimit(eps float64) BlobOption {
	return options.New(func(o *blobOptions) error {
		if eps < 0 {
			return fmt.Errorf("archive: %w", errs.ErrInvalidErrorLimit)
		}

		o.errorLimit = eps

		return nil
	})
}

// WithScatter records that the blob's bytes belong inside the named raw file
// at offset, the byte offset within that file's content where they begin
// (spec §6). It is placement metadata for readers: the blob's chunks are
// still stored through the normal chunk/dedup path.
func WithScatter(targetFile string, offset int64) BlobOption {
	return options.New(func(o *blobOptions) error {
		if targetFile == "" {
			return fmt.Errorf("archive: %w", errs.ErrInvalidScatterTarget)
		}

		o.targetFile = targetFile
		o.targetOffset = offset
		o.hasTarget = true

		return nil
	})
}

func newBlobOptions(opts ...BlobOption) (blobOptions, error) {
	o := blobOptions{}
	if err := options.Apply(&o, opts...); err != nil {
		return blobOptions{}, err
	}

	return o, nil
}
