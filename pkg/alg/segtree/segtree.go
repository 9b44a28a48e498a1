// Package segtree provides a segment tree answering inclusive range minimum,
// maximum and sum queries over a fixed-length integer array, with point
// updates in O(log N).
//
// Every node carries all three aggregates at once, so a single tree of 4N
// nodes serves every query kind. Build, query and update walk the tree with
// explicit stacks; nothing recurses.
//
// Queries are tolerant: an empty tree, an inverted range, or an index outside
// [0, N) yields the identity Aggregate (math.MaxInt, math.MinInt, 0) instead
// of an error. Out-of-range updates are ignored.
package segtree

import (
	"math"
)

// nodesPerLeaf bounds the node array size for a tree over N leaves.
const nodesPerLeaf = 4

// Aggregate summarizes a range of values.
type Aggregate struct {
	Min int   `json:"min"`
	Max int   `json:"max"`
	Sum int64 `json:"sum"`
}

// Identity is the aggregate of an empty range.
var Identity = Aggregate{Min: math.MaxInt, Max: math.MinInt, Sum: 0}

func leaf(v int) Aggregate {
	return Aggregate{Min: v, Max: v, Sum: int64(v)}
}

func combine(a, b Aggregate) Aggregate {
	return Aggregate{
		Min: min(a.Min, b.Min),
		Max: max(a.Max, b.Max),
		Sum: a.Sum + b.Sum,
	}
}

// span is a node together with the inclusive index range it covers.
type span struct {
	node, lo, hi int
}

// Tree is a min/max/sum segment tree. It is not safe for concurrent use.
type Tree struct {
	data  []int
	nodes []Aggregate
}

// New builds a tree over a copy of data. An empty data slice gives a valid
// empty tree.
func New(data []int) *Tree {
	t := &Tree{data: append([]int(nil), data...)}
	if len(t.data) == 0 {
		return t
	}

	t.nodes = make([]Aggregate, nodesPerLeaf*len(t.data))
	t.build()

	return t
}

// build fills nodes in post-order: a span is visited once to push its
// children and once more to combine them.
func (t *Tree) build() {
	type frame struct {
		span
		expanded bool
	}

	stack := []frame{{span: span{node: 1, lo: 0, hi: len(t.data) - 1}}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.lo == f.hi {
			t.nodes[f.node] = leaf(t.data[f.lo])

			continue
		}

		left, right := f.children()

		if f.expanded {
			t.nodes[f.node] = combine(t.nodes[left.node], t.nodes[right.node])

			continue
		}

		f.expanded = true
		stack = append(stack, f, frame{span: right}, frame{span: left})
	}
}

func (s span) children() (left, right span) {
	mid := s.lo + (s.hi-s.lo)/2

	return span{node: 2 * s.node, lo: s.lo, hi: mid},
		span{node: 2*s.node + 1, lo: mid + 1, hi: s.hi}
}

// Len returns the number of elements.
func (t *Tree) Len() int {
	return len(t.data)
}

// Data returns a copy of the current element values.
func (t *Tree) Data() []int {
	return append([]int(nil), t.data...)
}

// At returns the value at i and whether i is in range.
func (t *Tree) At(i int) (int, bool) {
	if i < 0 || i >= len(t.data) {
		return 0, false
	}

	return t.data[i], true
}

func (t *Tree) validRange(l, r int) bool {
	return len(t.data) > 0 && l >= 0 && r < len(t.data) && l <= r
}

// Query returns the aggregate of [l, r], or Identity for an invalid range.
func (t *Tree) Query(l, r int) Aggregate {
	if !t.validRange(l, r) {
		return Identity
	}

	acc := Identity
	stack := []span{{node: 1, lo: 0, hi: len(t.data) - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.hi < l || s.lo > r {
			continue
		}

		if l <= s.lo && s.hi <= r {
			acc = combine(acc, t.nodes[s.node])

			continue
		}

		left, right := s.children()
		stack = append(stack, right, left)
	}

	return acc
}

// RangeMin returns the minimum of [l, r], or math.MaxInt for an invalid range.
func (t *Tree) RangeMin(l, r int) int {
	return t.Query(l, r).Min
}

// RangeMax returns the maximum of [l, r], or math.MinInt for an invalid range.
func (t *Tree) RangeMax(l, r int) int {
	return t.Query(l, r).Max
}

// RangeSum returns the sum of [l, r], or 0 for an invalid range.
func (t *Tree) RangeSum(l, r int) int64 {
	return t.Query(l, r).Sum
}

// Update sets element i to v and recomputes the aggregates on the path from
// its leaf to the root. It reports whether i was in range.
func (t *Tree) Update(i, v int) bool {
	if i < 0 || i >= len(t.data) {
		return false
	}

	t.data[i] = v

	path := make([]int, 0, pathCap(len(t.data)))
	s := span{node: 1, lo: 0, hi: len(t.data) - 1}

	for s.lo != s.hi {
		path = append(path, s.node)

		left, right := s.children()
		if i <= left.hi {
			s = left
		} else {
			s = right
		}
	}

	t.nodes[s.node] = leaf(v)

	for j := len(path) - 1; j >= 0; j-- {
		n := path[j]
		t.nodes[n] = combine(t.nodes[2*n], t.nodes[2*n+1])
	}

	return true
}

// IndicesInValueRange returns, in ascending order, the indices whose value
// lies in [lo, hi]. Subtrees whose min/max fall outside the bounds are
// skipped without visiting their leaves.
func (t *Tree) IndicesInValueRange(lo, hi int) []int {
	out := make([]int, 0)
	if len(t.data) == 0 || lo > hi {
		return out
	}

	stack := []span{{node: 1, lo: 0, hi: len(t.data) - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		agg := t.nodes[s.node]
		if agg.Max < lo || agg.Min > hi {
			continue
		}

		if s.lo == s.hi {
			out = append(out, s.lo)

			continue
		}

		left, right := s.children()
		stack = append(stack, right, left)
	}

	return out
}

// pathCap estimates the root-to-leaf depth for n leaves.
func pathCap(n int) int {
	depth := 1
	for size := 1; size < n; size <<= 1 {
		depth++
	}

	return depth
}
