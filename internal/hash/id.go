// Package hash provides the 64-bit xxHash64 that huffman.Trainer uses for
// its per-trail sampling decision. internal/stringid's long-key track
// (spec.md §4.2) applies the same hash to keys of 8 bytes or more, but calls
// github.com/cespare/xxhash/v2 directly rather than this package.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of data.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}
