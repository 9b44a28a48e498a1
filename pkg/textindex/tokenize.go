// Package textindex provides the text lookup structures used over profile
// and event data: a tokenizer, an in-memory inverted index and a prefix
// trie.
package textindex

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it on every rune that is neither a
// letter nor a digit. Punctuation never survives into a token.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
