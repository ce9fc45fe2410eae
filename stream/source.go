package stream

import (
	"context"
	"io"

	"github.com/brian14708/tsar/buffer"
)

// DefaultBlockSize is the source operator's default read size (spec §4.4).
const DefaultBlockSize = 128 * 1024

// Source is a fixed block reader over r; fan-out 1 (spec §4.4).
type Source struct {
	r         io.Reader
	blockSize int
	scratch   []byte
}

// NewSource creates a Source reading blockSize-byte blocks from r. A
// blockSize of 0 uses DefaultBlockSize.
func NewSource(r io.Reader, blockSize int) *Source {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	return &Source{r: r, blockSize: blockSize, scratch: make([]byte, blockSize)}
}

func (s *Source) NumOutputs() int { return 1 }

// Next reads up to blockSize bytes from the underlying reader into out[0].
// It returns 0, nil at io.EOF (and any bytes read before EOF are still
// delivered on that same call only if nonzero; a subsequent call then
// returns 0 to end the stream).
func (s *Source) Next(ctx context.Context, out []*buffer.Buffer) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(s.r, s.scratch)
	if n == 0 {
		if err == io.EOF {
			return 0, nil
		}

		return 0, err
	}

	out[0].Reset()
	out[0].Append(s.scratch[:n])

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return n, err
	}

	return n, nil
}
