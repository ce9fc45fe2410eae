// Package pipeline implements tsar's batch compression driver (spec §4.3):
// running a stage chain forward to produce chunk outputs, then immediately
// reversing it to measure round-trip error before anything is committed.
package pipeline

import (
	"fmt"

	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/errs"
	"github.com/brian14708/tsar/etype"
)

// Result is the outcome of a Compress call: the chain's chunk outputs plus
// the measured round-trip error against the original bytes.
type Result struct {
	Outputs [][]byte
	Error   float64
}

// Compress runs chain forward over data, then immediately decodes its own
// output to measure round-trip error (spec §4.3 steps 1-5). Each stage is
// applied to every stream the previous stage produced, so fan-outs multiply
// along the chain; decoding hands each stage its streams in groups of its
// fan-out. It never mutates data. eps is the target accuracy threaded into lossy stages (only
// codec's ZFP stage consults it; CONVERT's narrowing is parameterless).
func Compress(data []byte, t etype.Type, shape []int, chain codec.Chain, eps float64, metric etype.Metric) (Result, error) {
	cur := [][]byte{append([]byte(nil), data...)}

	for _, tag := range chain {
		stage, ok := codec.Lookup(tag)
		if !ok {
			return Result{}, fmt.Errorf("pipeline: %w: %v", errs.ErrUnknownStageTag, tag)
		}

		var next [][]byte
		for _, s := range cur {
			out, err := stage.Encode([][]byte{s}, t, shape, eps)
			if err != nil {
				return Result{}, fmt.Errorf("pipeline: encode %v: %w", tag, err)
			}

			next = append(next, out...)
		}

		cur = next
	}

	outputs := cur

	decoded, err := decodeChain(outputs, t, shape, chain)
	if err != nil {
		return Result{}, err
	}

	if len(decoded) != len(data) {
		return Result{}, errs.ErrDecodedLengthMismatch
	}

	errVal, ok := etype.Error(t, data, decoded, metric)
	if !ok {
		return Result{}, errs.ErrUndefinedMetric
	}

	return Result{Outputs: outputs, Error: errVal}, nil
}

// Decompress runs chain's inverse over outputs, returning the reconstructed
// blob bytes (spec §4.3's decompress operation).
func Decompress(outputs [][]byte, t etype.Type, shape []int, chain codec.Chain) ([]byte, error) {
	return decodeChain(outputs, t, shape, chain)
}

func decodeChain(cur [][]byte, t etype.Type, shape []int, chain codec.Chain) ([]byte, error) {
	for i := len(chain) - 1; i >= 0; i-- {
		tag := chain[i]

		stage, ok := codec.Lookup(tag)
		if !ok {
			return nil, fmt.Errorf("pipeline: %w: %v", errs.ErrUnknownStageTag, tag)
		}

		k := stage.FanOut(t)
		if k <= 0 || len(cur)%k != 0 {
			return nil, errs.ErrFanOutMismatch
		}

		var next [][]byte
		for j := 0; j < len(cur); j += k {
			out, err := stage.Decode(cur[j:j+k], t, shape)
			if err != nil {
				return nil, fmt.Errorf("pipeline: decode %v: %w", tag, err)
			}

			next = append(next, out...)
		}

		cur = next
	}

	if len(cur) != 1 {
		return nil, errs.ErrFanOutMismatch
	}

	return cur[0], nil
}
