// Package minhash provides MinHash signatures for estimating the Jaccard
// similarity of texts.
//
// A text is reduced to its set of k-character shingles. Each of the H hash
// functions keeps the minimum value it produced over that set; the fraction
// of positions at which two signatures agree is an unbiased estimator of the
// Jaccard similarity of the underlying shingle sets. The variance of the
// estimate falls as 1/H.
//
// Every hash function is the xxHash64 base hash of the shingle mixed with a
// per-function seed through the splitmix64 finalizer. The seed table is built
// once in New and never changes, so signatures are reproducible across calls
// and across processes.
package minhash

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/Sumatoshi-tech/chameleon/pkg/alg/internal/hashutil"
)

const (
	// DefaultNumHashes is the default signature length.
	DefaultNumHashes = 128

	// DefaultShingleSize is the default shingle length in characters.
	DefaultShingleSize = 3

	// Empty is the value held by every position of a signature computed over
	// an empty shingle set.
	Empty = math.MaxUint64
)

var (
	// ErrZeroNumHashes is returned when numHashes is not positive.
	ErrZeroNumHashes = errors.New("minhash: numHashes must be positive")

	// ErrInvalidShingleSize is returned when the shingle size is not positive.
	ErrInvalidShingleSize = errors.New("minhash: shingle size must be positive")
)

// Signature is a fixed-length vector of per-function minimum hash values.
type Signature []uint64

// Hasher computes signatures with a fixed set of seeded hash functions.
// A Hasher is immutable after construction and safe for concurrent use.
type Hasher struct {
	seeds       []uint64
	shingleSize int
}

// New creates a Hasher with numHashes hash functions over shingles of
// shingleSize characters.
func New(numHashes, shingleSize int) (*Hasher, error) {
	if numHashes <= 0 {
		return nil, ErrZeroNumHashes
	}

	if shingleSize <= 0 {
		return nil, ErrInvalidShingleSize
	}

	return &Hasher{
		seeds:       hashutil.GenerateSeeds(numHashes, hashutil.Splitmix64),
		shingleSize: shingleSize,
	}, nil
}

// NewDefault creates a Hasher with DefaultNumHashes functions and
// DefaultShingleSize shingles.
func NewDefault() *Hasher {
	h, _ := New(DefaultNumHashes, DefaultShingleSize)

	return h
}

// NumHashes returns the signature length produced by h.
func (h *Hasher) NumHashes() int {
	return len(h.seeds)
}

// ShingleSize returns the shingle length used by h.
func (h *Hasher) ShingleSize() int {
	return h.shingleSize
}

// Signature computes the signature of text. An empty text (after
// normalization) yields a signature whose every position is Empty.
func (h *Hasher) Signature(text string) Signature {
	return h.SignatureOf(Shingles(text, h.shingleSize))
}

// SignatureOf computes the signature of an explicit token set.
func (h *Hasher) SignatureOf(tokens map[string]struct{}) Signature {
	sig := make(Signature, len(h.seeds))
	for i := range sig {
		sig[i] = Empty
	}

	for tok := range tokens {
		base := hashutil.String64(tok)

		for i, seed := range h.seeds {
			v := hashutil.MixHash(base, seed)
			if v < sig[i] {
				sig[i] = v
			}
		}
	}

	return sig
}

// TextSimilarity estimates the Jaccard similarity of the shingle sets of a
// and b.
func (h *Hasher) TextSimilarity(a, b string) float64 {
	return Similarity(h.Signature(a), h.Signature(b))
}

// Similarity returns the fraction of positions at which a and b agree.
// Signatures of different lengths, or empty signatures, have similarity 0.
func Similarity(a, b Signature) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	matches := 0

	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(a))
}

// IsEmpty reports whether every position of s holds Empty.
func (s Signature) IsEmpty() bool {
	for _, v := range s {
		if v != Empty {
			return false
		}
	}

	return true
}

// Shingles returns the set of contiguous k-character substrings of the
// normalized text. A text shorter than k is its own single shingle; an empty
// text has no shingles. A k below one is treated as one.
func Shingles(text string, k int) map[string]struct{} {
	k = max(k, 1)
	runes := []rune(Normalize(text))

	if len(runes) == 0 {
		return map[string]struct{}{}
	}

	if len(runes) < k {
		return map[string]struct{}{string(runes): {}}
	}

	set := make(map[string]struct{}, len(runes)-k+1)

	for i := 0; i+k <= len(runes); i++ {
		set[string(runes[i:i+k])] = struct{}{}
	}

	return set
}

// Normalize lower-cases text, collapses whitespace runs to single spaces and
// trims both ends.
func Normalize(text string) string {
	var sb strings.Builder

	sb.Grow(len(text))

	pendingSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			pendingSpace = sb.Len() > 0

			continue
		}

		if pendingSpace {
			sb.WriteByte(' ')

			pendingSpace = false
		}

		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}
