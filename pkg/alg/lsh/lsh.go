// Package lsh provides a Locality-Sensitive Hashing index over MinHash
// signatures for retrieving near-duplicate texts without pairwise comparison.
//
// A signature of H values is cut into numBands contiguous bands of numRows
// values. Two documents become candidates when they agree on every value of
// at least one band. Candidates are always verified with the exact signature
// similarity before they are returned, so bucketing only affects recall.
//
// If numBands*numRows exceeds H the trailing bands are truncated and bands
// that start at or past H are skipped. If it is smaller than H the tail of
// the signature is not bucketed but still takes part in verification.
//
// An Index is not safe for concurrent use; callers that share one across
// goroutines must guard it.
package lsh

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/Sumatoshi-tech/chameleon/pkg/alg/minhash"
)

const (
	// DefaultNumBands is the default number of bands.
	DefaultNumBands = 20

	// DefaultNumRows is the default number of rows per band.
	DefaultNumRows = 5

	bandIndexBytes = 4
	bytesPerValue  = 8
)

var (
	// ErrInvalidParams is returned when numBands or numRows is not positive.
	ErrInvalidParams = errors.New("lsh: numBands and numRows must be positive")

	// ErrNilHasher is returned when no hasher is supplied.
	ErrNilHasher = errors.New("lsh: hasher must not be nil")

	// ErrSizeMismatch is returned when a signature length differs from the
	// hasher's number of hash functions.
	ErrSizeMismatch = errors.New("lsh: signature length does not match hasher")
)

// Match is a verified similar document.
type Match struct {
	ID         string  `json:"id"         yaml:"id"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

type document struct {
	sig     minhash.Signature
	seq     uint64
	removed bool
}

// Index buckets document signatures by band.
type Index struct {
	hasher   *minhash.Hasher
	numBands int
	numRows  int
	buckets  map[string]map[string]struct{}
	docs     map[string]*document
	nextSeq  uint64
	live     int
}

// New creates an index that signs text with hasher and buckets signatures
// into numBands bands of numRows values.
func New(hasher *minhash.Hasher, numBands, numRows int) (*Index, error) {
	if hasher == nil {
		return nil, ErrNilHasher
	}

	if numBands <= 0 || numRows <= 0 {
		return nil, ErrInvalidParams
	}

	return &Index{
		hasher:   hasher,
		numBands: numBands,
		numRows:  numRows,
		buckets:  make(map[string]map[string]struct{}),
		docs:     make(map[string]*document),
	}, nil
}

// NewDefault creates an index with the default hasher, DefaultNumBands and
// DefaultNumRows.
func NewDefault() *Index {
	idx, _ := New(minhash.NewDefault(), DefaultNumBands, DefaultNumRows)

	return idx
}

// Hasher returns the hasher used to sign text.
func (idx *Index) Hasher() *minhash.Hasher {
	return idx.hasher
}

// NumBands returns the configured number of bands.
func (idx *Index) NumBands() int {
	return idx.numBands
}

// NumRows returns the configured number of rows per band.
func (idx *Index) NumRows() int {
	return idx.numRows
}

// EffectiveBands returns the number of bands that start inside the
// signature and therefore take part in bucketing.
func (idx *Index) EffectiveBands() int {
	h := idx.hasher.NumHashes()

	return min(idx.numBands, (h+idx.numRows-1)/idx.numRows)
}

// Len returns the number of documents that are present and not removed.
func (idx *Index) Len() int {
	return idx.live
}

// Contains reports whether id is present and not removed.
func (idx *Index) Contains(id string) bool {
	doc, ok := idx.docs[id]

	return ok && !doc.removed
}

// Signature returns the stored signature of id.
func (idx *Index) Signature(id string) (minhash.Signature, bool) {
	doc, ok := idx.docs[id]
	if !ok || doc.removed {
		return nil, false
	}

	return doc.sig, true
}

// AddDocument signs text and stores it under id.
func (idx *Index) AddDocument(id, text string) {
	// Length always matches, the signature comes from our own hasher.
	_ = idx.Add(id, idx.hasher.Signature(text))
}

// Add stores a precomputed signature under id. Re-adding an id replaces its
// signature and clears a removal, but the id stays in the buckets of its
// previous signature.
func (idx *Index) Add(id string, sig minhash.Signature) error {
	if len(sig) != idx.hasher.NumHashes() {
		return ErrSizeMismatch
	}

	doc, ok := idx.docs[id]
	if !ok {
		doc = &document{seq: idx.nextSeq}
		idx.nextSeq++
		idx.docs[id] = doc
		idx.live++
	} else if doc.removed {
		idx.live++
	}

	doc.sig = sig
	doc.removed = false

	for _, key := range idx.bandKeys(sig) {
		bucket := idx.buckets[key]
		if bucket == nil {
			bucket = make(map[string]struct{})
			idx.buckets[key] = bucket
		}

		bucket[id] = struct{}{}
	}

	return nil
}

// Remove marks id as removed. Removed ids are never returned by queries.
// It reports whether id was present.
func (idx *Index) Remove(id string) bool {
	doc, ok := idx.docs[id]
	if !ok || doc.removed {
		return false
	}

	doc.removed = true
	idx.live--

	return true
}

// Candidates returns the unverified ids sharing at least one band with id,
// excluding id itself, in insertion order.
func (idx *Index) Candidates(id string) []string {
	doc, ok := idx.docs[id]
	if !ok || doc.removed {
		return nil
	}

	seen := idx.collect(id, doc.sig)

	out := make([]string, 0, len(seen))
	for cand := range seen {
		out = append(out, cand)
	}

	sort.Slice(out, func(i, j int) bool {
		return idx.docs[out[i]].seq < idx.docs[out[j]].seq
	})

	return out
}

// FindSimilar returns the documents co-bucketed with id whose similarity to
// it is at least threshold. An unknown or removed id yields no matches.
func (idx *Index) FindSimilar(id string, threshold float64) []Match {
	doc, ok := idx.docs[id]
	if !ok || doc.removed {
		return []Match{}
	}

	candidates := idx.collect(id, doc.sig)
	matches := make([]Match, 0, len(candidates))

	for cand := range candidates {
		sim := minhash.Similarity(doc.sig, idx.docs[cand].sig)
		if sim >= threshold {
			matches = append(matches, Match{ID: cand, Similarity: sim})
		}
	}

	idx.order(matches)

	return matches
}

// FindSimilarByText compares the signature of text against every stored
// document and returns those at or above threshold.
func (idx *Index) FindSimilarByText(text string, threshold float64) []Match {
	sig := idx.hasher.Signature(text)
	matches := make([]Match, 0)

	for id, doc := range idx.docs {
		if doc.removed {
			continue
		}

		sim := minhash.Similarity(sig, doc.sig)
		if sim >= threshold {
			matches = append(matches, Match{ID: id, Similarity: sim})
		}
	}

	idx.order(matches)

	return matches
}

// collect unions the live buckets of sig, excluding self.
func (idx *Index) collect(self string, sig minhash.Signature) map[string]struct{} {
	seen := make(map[string]struct{})

	for _, key := range idx.bandKeys(sig) {
		for cand := range idx.buckets[key] {
			if cand == self || idx.docs[cand].removed {
				continue
			}

			seen[cand] = struct{}{}
		}
	}

	return seen
}

// order sorts by descending similarity, then by insertion order.
func (idx *Index) order(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}

		return idx.docs[matches[i].ID].seq < idx.docs[matches[j].ID].seq
	})
}

// bandKeys encodes every effective band as the big-endian band index
// followed by the band's values.
func (idx *Index) bandKeys(sig minhash.Signature) []string {
	keys := make([]string, 0, idx.numBands)

	for b := range idx.numBands {
		start := b * idx.numRows
		if start >= len(sig) {
			break
		}

		end := min(start+idx.numRows, len(sig))
		buf := make([]byte, bandIndexBytes, bandIndexBytes+(end-start)*bytesPerValue)
		binary.BigEndian.PutUint32(buf, uint32(b))

		for _, v := range sig[start:end] {
			buf = binary.BigEndian.AppendUint64(buf, v)
		}

		keys = append(keys, string(buf))
	}

	return keys
}
