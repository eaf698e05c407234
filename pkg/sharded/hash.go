package sharded

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/fasthash/fnv1a"
	"github.com/spaolacci/murmur3"
)

// Hasher computes the routing hash of a key.
//
// Implementations must be deterministic: equal keys hash to equal values for
// as long as the hasher is in use.
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// HasherFunc adapts an ordinary function to the Hasher interface.
type HasherFunc[K comparable] func(key K) uint64

// Hash calls f(key).
func (f HasherFunc[K]) Hash(key K) uint64 {
	return f(key)
}

// MapHasher hashes any comparable key with hash/maphash.
//
// Each MapHasher carries its own random seed, so hash values are only stable
// within one instance. The zero value is not usable; call NewMapHasher.
type MapHasher[K comparable] struct {
	seed maphash.Seed
}

// NewMapHasher returns a MapHasher with a fresh random seed.
func NewMapHasher[K comparable]() MapHasher[K] {
	return MapHasher[K]{seed: maphash.MakeSeed()}
}

// Hash implements Hasher.
func (h MapHasher[K]) Hash(key K) uint64 {
	return maphash.Comparable(h.seed, key)
}

// Murmur3 returns a MurmurHash3 (64-bit) hasher for string keys.
// Unlike MapHasher it is unseeded, so routing is stable across processes.
func Murmur3[K ~string]() Hasher[K] {
	return HasherFunc[K](func(key K) uint64 {
		return murmur3.Sum64([]byte(key))
	})
}

// XXHash returns an xxHash64 hasher for string keys.
func XXHash[K ~string]() Hasher[K] {
	return HasherFunc[K](func(key K) uint64 {
		return xxhash.Sum64String(string(key))
	})
}

// FNV1a returns a 64-bit FNV-1a hasher for string keys.
func FNV1a[K ~string]() Hasher[K] {
	return HasherFunc[K](func(key K) uint64 {
		return fnv1a.HashString64(string(key))
	})
}
