package textindex

import (
	"slices"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Trie indexes string keys for exact and prefix lookups. Each key carries
// the list of values inserted under it. It is not safe for concurrent use.
type Trie struct {
	tree *patricia.Trie
	size int
}

// NewTrie returns an empty trie.
func NewTrie() *Trie {
	return &Trie{tree: patricia.NewTrie()}
}

// Insert appends value to the values stored under key.
func (t *Trie) Insert(key, value string) {
	p := patricia.Prefix(key)

	if item := t.tree.Get(p); item != nil {
		values, _ := item.([]string)
		t.tree.Set(p, append(values, value))

		return
	}

	t.tree.Insert(p, []string{value})
	t.size++
}

// Len returns the number of distinct keys.
func (t *Trie) Len() int {
	return t.size
}

// Contains reports whether key was inserted.
func (t *Trie) Contains(key string) bool {
	return t.tree.Match(patricia.Prefix(key))
}

// Data returns a copy of the values stored under key.
func (t *Trie) Data(key string) []string {
	item := t.tree.Get(patricia.Prefix(key))
	if item == nil {
		return nil
	}

	values, _ := item.([]string)

	return slices.Clone(values)
}

// PrefixSearch returns every key starting with prefix, sorted.
func (t *Trie) PrefixSearch(prefix string) []string {
	keys := make([]string, 0)

	_ = t.tree.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		keys = append(keys, string(p))

		return nil
	})

	slices.Sort(keys)

	return keys
}

// Remove deletes key and its values. It reports whether key existed.
func (t *Trie) Remove(key string) bool {
	if !t.tree.Delete(patricia.Prefix(key)) {
		return false
	}

	t.size--

	return true
}

// Keys returns every key, sorted.
func (t *Trie) Keys() []string {
	return t.PrefixSearch("")
}
