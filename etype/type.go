// Package etype defines tsar's element-type descriptor (spec §3, §4.1): the
// enum of primitive kinds a blob's bytes can be interpreted as, their byte
// width, and the bounded error metric used by the selection policy to judge
// a lossy round-trip against a caller's budget.
package etype

import "fmt"

// Type tags a blob's element kind. The zero value is invalid; Byte is the
// first valid tag.
type Type uint8

const (
	invalid Type = iota

	// Byte is an opaque 8-bit value with no error metric beyond bit-difference
	// count; used for blobs that are not meant to be interpreted numerically.
	Byte

	Int8
	Int16
	Int32
	Int64

	Uint8
	Uint16
	Uint32
	Uint64

	Float16
	Float32
	Float64
	BFloat16
)

// ByteWidth returns w(T), the number of bytes one element of T occupies.
// A blob's byte_length must always be a multiple of this value (§3).
func (t Type) ByteWidth() int {
	switch t {
	case Byte, Int8, Uint8:
		return 1
	case Int16, Uint16, Float16, BFloat16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether t is one of the floating-point kinds.
func (t Type) IsFloat() bool {
	switch t {
	case Float16, Float32, Float64, BFloat16:
		return true
	default:
		return false
	}
}

// IsSignedInt reports whether t is a signed integer kind.
func (t Type) IsSignedInt() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsUnsignedInt reports whether t is an unsigned integer kind. Byte is not
// one: it carries its own metric (see Error).
func (t Type) IsUnsignedInt() bool {
	switch t {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a recognized, non-zero element type tag.
func (t Type) Valid() bool {
	return t >= Byte && t <= BFloat16
}

// String renders the type tag for logging and error messages.
func (t Type) String() string {
	switch t {
	case Byte:
		return "byte"
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Uint64:
		return "u64"
	case Float16:
		return "f16"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case BFloat16:
		return "bf16"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(t))
	}
}
