// Package cms provides a Count-Min Sketch and a heavy-hitter tracker built on
// top of it.
//
// A sketch never underestimates the count of a key added with positive
// increments. With width ceil(e/epsilon) and depth ceil(ln(1/delta)) the
// overestimate stays below epsilon*total with probability at least 1-delta.
//
// Row hashes are the xxHash64 of the key mixed with one splitmix64 seed per
// row.
package cms

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/Sumatoshi-tech/chameleon/pkg/alg/internal/hashutil"
)

var (
	// ErrInvalidEpsilon is returned when epsilon is not positive.
	ErrInvalidEpsilon = errors.New("cms: epsilon must be positive")

	// ErrInvalidDelta is returned when delta is outside (0, 1).
	ErrInvalidDelta = errors.New("cms: delta must be in the open interval (0, 1)")

	// ErrInvalidK is returned when a top-k tracker is asked for k < 1.
	ErrInvalidK = errors.New("cms: k must be positive")
)

// Sketch is a Count-Min Sketch safe for concurrent use.
type Sketch struct {
	mu    sync.RWMutex
	rows  [][]int64
	seeds []uint64
	width uint64
	total int64
}

// New sizes a sketch from its error bounds.
func New(epsilon, delta float64) (*Sketch, error) {
	if epsilon <= 0 {
		return nil, ErrInvalidEpsilon
	}

	if delta <= 0 || delta >= 1 {
		return nil, ErrInvalidDelta
	}

	width := uint64(math.Ceil(math.E / epsilon))
	depth := int(math.Ceil(math.Log(1 / delta)))

	rows := make([][]int64, depth)
	for i := range rows {
		rows[i] = make([]int64, width)
	}

	return &Sketch{
		rows:  rows,
		seeds: hashutil.GenerateSeeds(depth, hashutil.Mix64),
		width: width,
	}, nil
}

// Width returns the number of counters per row.
func (s *Sketch) Width() uint {
	return uint(s.width)
}

// Depth returns the number of rows.
func (s *Sketch) Depth() uint {
	return uint(len(s.rows))
}

func (s *Sketch) column(row int, base uint64) uint64 {
	return hashutil.MixHash(base, s.seeds[row]) % s.width
}

// Add increments key by count and returns the new estimate.
func (s *Sketch) Add(key []byte, count int64) int64 {
	base := xxhash.Sum64(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	est := int64(math.MaxInt64)

	for r, row := range s.rows {
		c := s.column(r, base)
		row[c] += count
		est = min(est, row[c])
	}

	s.total += count

	return est
}

// AddString is Add for string keys.
func (s *Sketch) AddString(key string, count int64) int64 {
	return s.Add([]byte(key), count)
}

// Count returns the estimated count of key.
func (s *Sketch) Count(key []byte) int64 {
	base := xxhash.Sum64(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	est := int64(math.MaxInt64)

	for r, row := range s.rows {
		est = min(est, row[s.column(r, base)])
	}

	return est
}

// CountString is Count for string keys.
func (s *Sketch) CountString(key string) int64 {
	return s.Count([]byte(key))
}

// Total returns the sum of all increments.
func (s *Sketch) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.total
}

// Reset zeroes every counter.
func (s *Sketch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		clear(row)
	}

	s.total = 0
}

// Item is a key with its estimated count.
type Item struct {
	Key   string `json:"key"   yaml:"key"`
	Count int64  `json:"count" yaml:"count"`
}

// TopK tracks the k keys with the highest estimated counts. It is not safe
// for concurrent use.
type TopK struct {
	sketch *Sketch
	k      int
	items  map[string]int64
}

// NewTopK tracks the k heaviest keys observed through sketch.
func NewTopK(sketch *Sketch, k int) (*TopK, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}

	return &TopK{sketch: sketch, k: k, items: make(map[string]int64, k+1)}, nil
}

// Observe counts one occurrence of key.
func (t *TopK) Observe(key string) {
	est := t.sketch.AddString(key, 1)

	if _, ok := t.items[key]; ok || len(t.items) < t.k {
		t.items[key] = est

		return
	}

	var (
		weakest    string
		weakestEst = int64(math.MaxInt64)
	)

	for k, c := range t.items {
		if c < weakestEst || (c == weakestEst && k > weakest) {
			weakest, weakestEst = k, c
		}
	}

	if est > weakestEst {
		delete(t.items, weakest)
		t.items[key] = est
	}
}

// Items returns the tracked keys by descending count, then ascending key.
func (t *TopK) Items() []Item {
	out := make([]Item, 0, len(t.items))
	for k, c := range t.items {
		out = append(out, Item{Key: k, Count: c})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Key < out[j].Key
	})

	return out
}
