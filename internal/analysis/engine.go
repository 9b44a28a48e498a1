package analysis

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
)

// Engine finds near-duplicate texts with MinHash signatures and LSH
// banding.
type Engine struct {
	index     *lsh.Index
	ids       []string
	seen      map[string]struct{}
	threshold float64
}

// DuplicatePair is two indexed documents at or above the threshold.
type DuplicatePair struct {
	A          string  `json:"a"          yaml:"a"`
	B          string  `json:"b"          yaml:"b"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// NewEngine builds an empty engine from similarity settings.
func NewEngine(cfg config.SimilarityConfig) (*Engine, error) {
	hasher, err := minhash.New(cfg.NumHashes, cfg.ShingleSize)
	if err != nil {
		return nil, fmt.Errorf("minhash: %w", err)
	}

	index, err := lsh.New(hasher, cfg.Bands, cfg.Rows)
	if err != nil {
		return nil, fmt.Errorf("lsh: %w", err)
	}

	return &Engine{index: index, seen: make(map[string]struct{}), threshold: cfg.Threshold}, nil
}

// Threshold returns the configured default threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Len returns the number of live documents.
func (e *Engine) Len() int {
	return e.index.Len()
}

// Index exposes the underlying LSH index.
func (e *Engine) Index() *lsh.Index {
	return e.index
}

// Add indexes text under id, replacing any previous text.
func (e *Engine) Add(id, text string) {
	if _, ok := e.seen[id]; !ok {
		e.seen[id] = struct{}{}
		e.ids = append(e.ids, id)
	}

	e.index.AddDocument(id, text)
}

// Remove drops id from future results.
func (e *Engine) Remove(id string) bool {
	return e.index.Remove(id)
}

// ProfileKey is the document id of a profile: its id, else its username.
func ProfileKey(p model.InstagramProfile) string {
	if p.ID != "" {
		return p.ID
	}

	return p.Username
}

// ProfileText is the bio followed by every caption.
func ProfileText(p model.InstagramProfile) string {
	parts := make([]string, 0, len(p.Posts)+1)
	if p.Bio != "" {
		parts = append(parts, p.Bio)
	}

	for _, post := range p.Posts {
		if post.Caption != "" {
			parts = append(parts, post.Caption)
		}
	}

	return strings.Join(parts, " ")
}

// IndexProfiles adds every profile with non-empty text and returns how many
// were indexed.
func (e *Engine) IndexProfiles(profiles []model.InstagramProfile) int {
	n := 0

	for _, p := range profiles {
		key, text := ProfileKey(p), ProfileText(p)
		if key == "" || strings.TrimSpace(text) == "" {
			continue
		}

		e.Add(key, text)
		n++
	}

	return n
}

// Similar returns documents co-bucketed with id at or above threshold.
func (e *Engine) Similar(id string, threshold float64) []lsh.Match {
	return e.index.FindSimilar(id, threshold)
}

// SimilarText compares text against every indexed document.
func (e *Engine) SimilarText(text string, threshold float64) []lsh.Match {
	return e.index.FindSimilarByText(text, threshold)
}

// Duplicates lists each similar pair once, the earlier-indexed id first,
// ordered by that id's insertion then descending similarity.
func (e *Engine) Duplicates(threshold float64) []DuplicatePair {
	pos := make(map[string]int, len(e.ids))
	for i, id := range e.ids {
		pos[id] = i
	}

	out := make([]DuplicatePair, 0)

	for i, id := range e.ids {
		for _, m := range e.index.FindSimilar(id, threshold) {
			if pos[m.ID] <= i {
				continue
			}

			out = append(out, DuplicatePair{A: id, B: m.ID, Similarity: m.Similarity})
		}
	}

	return out
}
