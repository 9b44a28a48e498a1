// Package unionfind provides a disjoint-set forest keyed by string with path
// compression and union by rank.
package unionfind

import (
	"sort"
)

// Set is a disjoint-set forest. It is not safe for concurrent use.
type Set struct {
	index  map[string]int
	keys   []string
	parent []int
	rank   []uint8
	groups int
}

// New returns an empty set.
func New() *Set {
	return &Set{index: make(map[string]int)}
}

// Add inserts key as a singleton. It reports whether key was new.
func (s *Set) Add(key string) bool {
	if _, ok := s.index[key]; ok {
		return false
	}

	id := len(s.keys)
	s.index[key] = id
	s.keys = append(s.keys, key)
	s.parent = append(s.parent, id)
	s.rank = append(s.rank, 0)
	s.groups++

	return true
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.keys)
}

// Count returns the number of disjoint groups.
func (s *Set) Count() int {
	return s.groups
}

func (s *Set) root(id int) int {
	r := id
	for s.parent[r] != r {
		r = s.parent[r]
	}

	for s.parent[id] != r {
		s.parent[id], id = r, s.parent[id]
	}

	return r
}

// Find returns the representative key of key's group. Unknown keys report
// false.
func (s *Set) Find(key string) (string, bool) {
	id, ok := s.index[key]
	if !ok {
		return "", false
	}

	return s.keys[s.root(id)], true
}

// Union merges the groups of a and b, adding either key if missing. It
// reports whether two distinct groups were merged.
func (s *Set) Union(a, b string) bool {
	s.Add(a)
	s.Add(b)

	ra, rb := s.root(s.index[a]), s.root(s.index[b])
	if ra == rb {
		return false
	}

	switch {
	case s.rank[ra] < s.rank[rb]:
		ra, rb = rb, ra
	case s.rank[ra] == s.rank[rb]:
		s.rank[ra]++
	}

	s.parent[rb] = ra
	s.groups--

	return true
}

// Connected reports whether a and b are known and in the same group.
func (s *Set) Connected(a, b string) bool {
	ia, okA := s.index[a]
	ib, okB := s.index[b]

	return okA && okB && s.root(ia) == s.root(ib)
}

// Groups returns every group with members in insertion order. Groups are
// ordered by their earliest-inserted member.
func (s *Set) Groups() [][]string {
	byRoot := make(map[int]int, s.groups)
	out := make([][]string, 0, s.groups)

	for id, key := range s.keys {
		r := s.root(id)

		slot, ok := byRoot[r]
		if !ok {
			slot = len(out)
			byRoot[r] = slot
			out = append(out, nil)
		}

		out[slot] = append(out[slot], key)
	}

	return out
}

// LargestGroups returns the groups sorted by descending size, ties keeping
// Groups order.
func (s *Set) LargestGroups() [][]string {
	groups := s.Groups()
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i]) > len(groups[j])
	})

	return groups
}
