package textindex

import (
	"slices"
	"sort"
)

// DocID identifies a document in an InvertedIndex. IDs start at 1.
type DocID int

// InvertedIndex maps terms to the documents containing them. It is not safe
// for concurrent use.
type InvertedIndex struct {
	postings map[string]map[DocID]struct{}
	docs     map[DocID]string
	next     DocID
}

// NewInvertedIndex returns an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]map[DocID]struct{}),
		docs:     make(map[DocID]string),
		next:     1,
	}
}

// Add stores content and indexes its tokens. It returns the new document id.
func (ix *InvertedIndex) Add(content string) DocID {
	id := ix.next
	ix.next++
	ix.docs[id] = content

	for _, term := range Tokenize(content) {
		set := ix.postings[term]
		if set == nil {
			set = make(map[DocID]struct{})
			ix.postings[term] = set
		}

		set[id] = struct{}{}
	}

	return id
}

// Len returns the number of documents.
func (ix *InvertedIndex) Len() int {
	return len(ix.docs)
}

// Document returns the content stored under id.
func (ix *InvertedIndex) Document(id DocID) (string, bool) {
	doc, ok := ix.docs[id]

	return doc, ok
}

// Search tokenizes query and returns the documents containing every term,
// in ascending id order.
func (ix *InvertedIndex) Search(query string) []DocID {
	return ix.SearchAnd(Tokenize(query))
}

// SearchAnd returns the documents containing all of terms. Terms are
// normalized the same way as indexed content.
func (ix *InvertedIndex) SearchAnd(terms []string) []DocID {
	terms = normalizeTerms(terms)
	if len(terms) == 0 {
		return []DocID{}
	}

	// Intersect starting from the rarest term.
	sort.Slice(terms, func(i, j int) bool {
		return len(ix.postings[terms[i]]) < len(ix.postings[terms[j]])
	})

	out := make([]DocID, 0)

	for id := range ix.postings[terms[0]] {
		all := true

		for _, term := range terms[1:] {
			if _, ok := ix.postings[term][id]; !ok {
				all = false

				break
			}
		}

		if all {
			out = append(out, id)
		}
	}

	slices.Sort(out)

	return out
}

// SearchOr returns the documents containing any of terms.
func (ix *InvertedIndex) SearchOr(terms []string) []DocID {
	seen := make(map[DocID]struct{})

	for _, term := range normalizeTerms(terms) {
		for id := range ix.postings[term] {
			seen[id] = struct{}{}
		}
	}

	out := make([]DocID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}

	slices.Sort(out)

	return out
}

// Terms returns every indexed term in lexical order.
func (ix *InvertedIndex) Terms() []string {
	out := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		out = append(out, term)
	}

	slices.Sort(out)

	return out
}

// TermFrequency returns the number of documents containing term.
func (ix *InvertedIndex) TermFrequency(term string) int {
	toks := Tokenize(term)
	if len(toks) != 1 {
		return 0
	}

	return len(ix.postings[toks[0]])
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))

	for _, t := range terms {
		out = append(out, Tokenize(t)...)
	}

	slices.Sort(out)

	return slices.Compact(out)
}
