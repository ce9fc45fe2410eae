// Package codec implements tsar's compression stage catalog: the reversible
// byte-transform building blocks (entropy coding, float narrowing, bit-plane
// splitting, delta/XOR prediction, a lossy fixed-accuracy tensor coder) that
// the pipeline and policy packages compose into per-blob chains.
package codec

import (
	"fmt"

	"github.com/brian14708/tsar/etype"
)

// Stage is one reversible (or bounded-error) byte-transform step in a
// compression chain (spec §4.2). Encode/Decode operate on lists of byte
// buffers rather than single buffers because a stage may split one input
// stream into several (SPLIT MANTISSA) or merge several back into one.
type Stage interface {
	// Tag identifies the stage for wire serialization.
	Tag() Tag

	// FanOut returns the number of output streams this stage produces for
	// one input stream of the given element type. Fan-out composes
	// multiplicatively along a chain (spec §4.2).
	FanOut(t etype.Type) int

	// Encode transforms one input stream (in has length 1: the raw blob
	// buffer, or one stream produced by the previous stage) into FanOut(t)
	// outputs. The pipeline calls it once per stream of a multi-stream list.
	Encode(in [][]byte, t etype.Type, shape []int, eps float64) ([][]byte, error)

	// Decode reverses Encode, consuming the FanOut(t) outputs one Encode
	// call produced and returning the single stream that call consumed.
	Decode(in [][]byte, t etype.Type, shape []int) ([][]byte, error)
}

// Chain is an ordered list of stage tags applied on encode; decode applies
// the reverse order with each stage's inverse (spec §4.2/§4.3).
type Chain []Tag

// String renders a chain as "[TAG, TAG, ...]" for logging and test output.
func (c Chain) String() string {
	s := "["
	for i, t := range c {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}

	return s + "]"
}

// FanOut returns the total number of chunk streams a blob compressed with
// this chain produces for element type t: the product of each stage's
// fan-out, or 1 for an empty chain (spec §3's "fan-out equals the chain's
// declared output count").
func (c Chain) FanOut(t etype.Type) int {
	n := 1
	for _, tag := range c {
		s, ok := registry[tag]
		if !ok {
			return 0
		}

		n *= s.FanOut(t)
	}

	return n
}

// Lossy reports whether any stage in the chain can introduce error.
func (c Chain) Lossy() bool {
	for _, tag := range c {
		if tag.Lossy() {
			return true
		}
	}

	return false
}

var registry = map[Tag]Stage{
	TagZstd:             zstdStage{level: defaultZstdLevel},
	TagConvertF32ToBF16: convertStage{tag: TagConvertF32ToBF16, from: etype.Float32, to: etype.BFloat16},
	TagConvertF64ToBF16: convertStage{tag: TagConvertF64ToBF16, from: etype.Float64, to: etype.BFloat16},
	TagConvertF64ToF32:  convertStage{tag: TagConvertF64ToF32, from: etype.Float64, to: etype.Float32},
	TagSplitBF16:        splitStage{t: etype.BFloat16},
	TagSplitF32:         splitStage{t: etype.Float32},
	TagSplitF64:         splitStage{t: etype.Float64},
	TagZfpF32_1D:        zfpStage{t: etype.Float32},
	TagZfpF64_1D:        zfpStage{t: etype.Float64},
	TagLZ4:              lz4Stage{},
	TagS2:               s2Stage{},
	TagDeltaDiff:        deltaDiffStage{},
	TagDeltaDiffDiff:    deltaDiffDiffStage{},
	TagXOR:              xorStage{},
}

// Lookup returns the Stage implementation for tag, or (nil, false) if tag is
// unrecognized by this build (spec §6/§7: readers must reject only the
// offending blob, not the whole archive).
func Lookup(tag Tag) (Stage, bool) {
	s, ok := registry[tag]

	return s, ok
}

// MustLookup is Lookup but panics on an unknown tag; used where the caller
// already validated the tag (e.g. it was just looked up from the candidate
// table, not read off the wire).
func MustLookup(tag Tag) Stage {
	s, ok := registry[tag]
	if !ok {
		panic(fmt.Sprintf("codec: unregistered stage tag %v", tag))
	}

	return s
}
