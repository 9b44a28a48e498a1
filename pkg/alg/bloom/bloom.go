// Package bloom provides a Bloom filter: a bit-array set that answers
// "definitely absent" or "possibly present".
//
// Bit positions come from double hashing (Kirsch and Mitzenmacher, 2006):
// position i is h1 + i*h2 mod m, where h1 is the xxHash64 of the key and h2
// is a splitmix64 variation of h1 forced odd.
package bloom

import (
	"encoding/binary"
	"errors"
	"math"
	"math/bits"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/Sumatoshi-tech/chameleon/pkg/alg/internal/hashutil"
)

const (
	wordBits   = 64
	wordBytes  = 8
	headerSize = 3 * wordBytes

	// stepSeed derives the second hash from the first.
	stepSeed = 0x2545f4914f6cdd1d
)

var (
	// ErrZeroN is returned when the expected element count is zero.
	ErrZeroN = errors.New("bloom: n must be positive")

	// ErrInvalidFP is returned when fp is outside (0, 1).
	ErrInvalidFP = errors.New("bloom: fp must be in the open interval (0, 1)")

	// ErrZeroSize is returned when m or k is zero.
	ErrZeroSize = errors.New("bloom: m and k must be positive")

	// ErrCorrupt is returned when binary data cannot be decoded.
	ErrCorrupt = errors.New("bloom: corrupt binary data")
)

// Filter is a Bloom filter safe for concurrent use.
type Filter struct {
	mu    sync.RWMutex
	words []uint64
	m     uint64
	k     uint64
	added uint64
}

// New creates a filter with m bits and k hash functions.
func New(m, k uint) (*Filter, error) {
	if m == 0 || k == 0 {
		return nil, ErrZeroSize
	}

	return &Filter{
		words: make([]uint64, (m+wordBits-1)/wordBits),
		m:     uint64(m),
		k:     uint64(k),
	}, nil
}

// NewWithEstimates sizes a filter for n elements at false-positive rate fp,
// using m = ceil(-n ln fp / ln²2) and k = round(m/n ln 2).
func NewWithEstimates(n uint, fp float64) (*Filter, error) {
	if n == 0 {
		return nil, ErrZeroN
	}

	if fp <= 0 || fp >= 1 {
		return nil, ErrInvalidFP
	}

	m, k := Estimate(n, fp)

	return New(m, k)
}

// Estimate returns the bit count and hash count for n elements at fp.
func Estimate(n uint, fp float64) (m, k uint) {
	m = uint(math.Ceil(-float64(n) * math.Log(fp) / (math.Ln2 * math.Ln2)))
	k = max(uint(math.Round(float64(m)/float64(n)*math.Ln2)), 1)

	return m, k
}

// BitCount returns m.
func (f *Filter) BitCount() uint {
	return uint(f.m)
}

// HashCount returns k.
func (f *Filter) HashCount() uint {
	return uint(f.k)
}

func kernel(data []byte) (h1, h2 uint64) {
	h1 = xxhash.Sum64(data)
	h2 = hashutil.MixHash(h1, stepSeed) | 1

	return h1, h2
}

func (f *Filter) position(h1, h2, i uint64) (word uint64, mask uint64) {
	pos := (h1 + i*h2) % f.m

	return pos / wordBits, 1 << (pos % wordBits)
}

// Add inserts data.
func (f *Filter) Add(data []byte) {
	f.TestAndAdd(data)
}

// AddString inserts s.
func (f *Filter) AddString(s string) {
	f.Add([]byte(s))
}

// Test reports whether data may have been added. False is definitive.
func (f *Filter) Test(data []byte) bool {
	h1, h2 := kernel(data)

	f.mu.RLock()
	defer f.mu.RUnlock()

	for i := range f.k {
		w, mask := f.position(h1, h2, i)
		if f.words[w]&mask == 0 {
			return false
		}
	}

	return true
}

// TestString reports whether s may have been added.
func (f *Filter) TestString(s string) bool {
	return f.Test([]byte(s))
}

// TestAndAdd inserts data and reports whether it may have been present
// before the call.
func (f *Filter) TestAndAdd(data []byte) bool {
	h1, h2 := kernel(data)

	f.mu.Lock()
	defer f.mu.Unlock()

	present := true

	for i := range f.k {
		w, mask := f.position(h1, h2, i)
		if f.words[w]&mask == 0 {
			present = false
			f.words[w] |= mask
		}
	}

	f.added++

	return present
}

// TestAndAddString is TestAndAdd for strings.
func (f *Filter) TestAndAddString(s string) bool {
	return f.TestAndAdd([]byte(s))
}

// Added returns the number of insertions, counting repeats.
func (f *Filter) Added() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.added
}

// FillRatio returns the fraction of set bits.
func (f *Filter) FillRatio() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	set := 0
	for _, w := range f.words {
		set += bits.OnesCount64(w)
	}

	return float64(set) / float64(f.m)
}

// EstimatedFalsePositiveRate returns (fill ratio)^k, the probability that a
// never-added key tests positive at the current fill.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return math.Pow(f.FillRatio(), float64(f.k))
}

// Reset clears every bit.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	clear(f.words)
	f.added = 0
}

// MarshalBinary encodes the filter as big-endian m, k, added, then the words.
func (f *Filter) MarshalBinary() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	buf := make([]byte, 0, headerSize+len(f.words)*wordBytes)
	buf = binary.BigEndian.AppendUint64(buf, f.m)
	buf = binary.BigEndian.AppendUint64(buf, f.k)
	buf = binary.BigEndian.AppendUint64(buf, f.added)

	for _, w := range f.words {
		buf = binary.BigEndian.AppendUint64(buf, w)
	}

	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (f *Filter) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return ErrCorrupt
	}

	m := binary.BigEndian.Uint64(data[0:])
	k := binary.BigEndian.Uint64(data[wordBytes:])
	added := binary.BigEndian.Uint64(data[2*wordBytes:])

	if m == 0 || k == 0 {
		return ErrCorrupt
	}

	n := (m + wordBits - 1) / wordBits
	body := data[headerSize:]

	if uint64(len(body)) != n*wordBytes {
		return ErrCorrupt
	}

	words := make([]uint64, n)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(body[i*wordBytes:])
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.m, f.k, f.added, f.words = m, k, added, words

	return nil
}
