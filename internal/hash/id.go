// Package hash provides the fast, non-cryptographic digest used internally to
// short-circuit repeated work. It is never used for the archive's
// content-addressing (that is SHA-1, per spec §4.6) — only to cheaply detect
// "have I already probed this exact 64KiB head before" inside the selection
// policy's candidate loop.
package hash

import "github.com/cespare/xxhash/v2"

// Bytes computes the xxHash64 digest of data.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
