// Package policy implements tsar's per-blob stage-chain selection (spec
// §4.5): probing a fixed candidate table on a bounded head of the blob,
// filtering by error budget, ranking by encoded size, and re-validating the
// winner against the full blob before it is ever written.
package policy

import (
	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/etype"
)

// DefaultTable is the literal candidate-chain data spec §4.5 calls for: a
// small, easily-extended table of chains to try per element type. Declared
// as data (not code) so callers can override or extend it via WithChains
// without touching this package.
var DefaultTable = map[etype.Type][]codec.Chain{
	etype.Float32: {
		{codec.TagZfpF32_1D},
		{codec.TagSplitF32, codec.TagZstd},
		{codec.TagConvertF32ToBF16, codec.TagSplitBF16, codec.TagZstd},
		{codec.TagZstd},
	},
	etype.Float64: {
		{codec.TagZfpF64_1D},
		{codec.TagSplitF64, codec.TagZstd},
		{codec.TagConvertF64ToF32, codec.TagSplitF32, codec.TagZstd},
		{codec.TagConvertF64ToBF16, codec.TagSplitBF16, codec.TagZstd},
		{codec.TagZstd},
	},
	etype.BFloat16: {
		{codec.TagZstd},
		{codec.TagSplitBF16, codec.TagZstd},
	},
}

// defaultCandidates is the "other primitives" fallback (spec §4.5) used for
// every element type not explicitly listed in DefaultTable.
var defaultCandidates = []codec.Chain{
	{codec.TagZstd},
}

// candidatesFor returns table's entry for t, or defaultCandidates if t has
// none (the spec's "other primitives" bucket).
func candidatesFor(table map[etype.Type][]codec.Chain, t etype.Type) []codec.Chain {
	if cs, ok := table[t]; ok {
		return cs
	}

	return defaultCandidates
}
