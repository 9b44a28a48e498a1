// Package hashutil provides the hash kernels shared by the probabilistic
// structures in pkg/alg (MinHash, Count-Min Sketch, Bloom filter).
//
// Seeds and per-function variations use the splitmix64 finalizer by
// Vigna (2014), which gives full-avalanche mixing across all 64 bits.
package hashutil

import (
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
)

// Splitmix64 constants.
const (
	// BaseSeed is the starting state for deterministic seed generation.
	BaseSeed = 0x517cc1b727220a95

	mixShift1 = 30
	mixMul1   = 0xbf58476d1ce4e5b9
	mixShift2 = 27
	mixMul2   = 0x94d049bb133111eb
	mixShift3 = 31

	// golden-ratio increment that advances splitmix64 state.
	splitmix64Increment = 0x9e3779b97f4a7c15
)

// Mix64 applies the splitmix64 finalizer. It does not advance any state.
func Mix64(v uint64) uint64 {
	v ^= v >> mixShift1
	v *= mixMul1
	v ^= v >> mixShift2
	v *= mixMul2
	v ^= v >> mixShift3

	return v
}

// Splitmix64 advances state by the golden-ratio increment and mixes it.
func Splitmix64(state uint64) uint64 {
	return Mix64(state + splitmix64Increment)
}

// MixHash derives a seeded variation of a base hash. The same (base, seed)
// pair always yields the same value.
func MixHash(base, seed uint64) uint64 {
	return Mix64(base ^ seed)
}

// String64 hashes s with xxHash64.
func String64(s string) uint64 {
	return xxhash.Sum64String(s)
}

// FNV64a computes a 64-bit FNV-1a hash of data.
func FNV64a(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64()
}

// GenerateSeeds returns n deterministic seeds produced by repeatedly applying
// advance to BaseSeed. Use Splitmix64 for MinHash seeds and Mix64 for sketch
// rows.
func GenerateSeeds(n int, advance func(uint64) uint64) []uint64 {
	if n <= 0 {
		return nil
	}

	seeds := make([]uint64, n)
	state := uint64(BaseSeed)

	for i := range n {
		state = advance(state)
		seeds[i] = state
	}

	return seeds
}
