package swisstable

import (
	"hash/fnv"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// HashFunc computes a word-sized hash for a key of type K. Conforming
// implementations need only be deterministic for the lifetime of the key and
// agree with equality: equal keys must hash equal.
type HashFunc[K comparable] func(K) uint64

// MakeDefaultHashFunc returns the table's generic default hasher, seeded once
// so that repeated calls within the same table are consistent. It works for
// any comparable K via maphash.Comparable and is what NewMap/NewSet install
// unless an Option overrides it.
func MakeDefaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

// HashSplit derives the bucket seed h1 and the 7-bit fingerprint h2 from a
// full hash: h2 is the low 7 bits (it has to fit alongside the high bit in a
// Full control byte), h1 is everything above it.
func HashSplit(hash uint64) (uintptr, uint8) {
	h1 := uintptr(hash >> 7)
	h2 := uint8(hash & 0x7F)

	return h1, h2
}

// Integer is the set of built-in integer types eligible for the
// multiplicative-mix default hash.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// HashInt is the conforming default for integer key types: a multiplicative
// mix of the integer's bit pattern. Install with WithHashFunc when a table
// is keyed by an integer type and the generic maphash default isn't wanted.
func HashInt[K Integer](k K) uint64 {
	x := uint64(k)
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// HashBytes is the conforming default for byte-string key content: FNV-1a
// over the bytes. hash/fnv is the standard library's own implementation of
// that exact algorithm, not a stand-in for an ecosystem choice.
func HashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b) //nolint:errcheck // hash.Hash64.Write never returns an error
	return h.Sum64()
}

// HashString is HashBytes over a string's content.
func HashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s)) //nolint:errcheck
	return h.Sum64()
}

// XXHashBytes is an ecosystem alternative to HashBytes for throughput-
// sensitive tables: cespare/xxhash/v2's XXH64, the same hash family
// zeebo/gofaster's htable package reaches for to tag its records. Install
// via WithHashFunc(XXHashBytes) on a []byte-keyed table.
func XXHashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// XXHashString is XXHashBytes over a string's content.
func XXHashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
