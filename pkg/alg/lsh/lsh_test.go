package lsh

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/chameleon/pkg/alg/minhash"
)

// Test constants for LSH tests.
const (
	// testHighThreshold is the similarity threshold for near-duplicate queries.
	testHighThreshold = 0.5

	// testSmallHashes is the signature length used by hand-built signatures.
	testSmallHashes = 10

	// testRecallDocs is the number of document pairs in the recall test.
	testRecallDocs = 50
)

func smallHasher(t *testing.T, numHashes int) *minhash.Hasher {
	t.Helper()

	h, err := minhash.New(numHashes, minhash.DefaultShingleSize)
	require.NoError(t, err)

	return h
}

func ids(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}

	return out
}

// --- Constructor Tests ---.

func TestNew_Valid(t *testing.T) {
	t.Parallel()

	idx, err := New(minhash.NewDefault(), 16, 8)

	require.NoError(t, err)
	assert.Equal(t, 16, idx.NumBands())
	assert.Equal(t, 8, idx.NumRows())
	assert.Equal(t, 0, idx.Len())
}

func TestNew_InvalidParams(t *testing.T) {
	t.Parallel()

	_, err := New(nil, 1, 1)
	require.ErrorIs(t, err, ErrNilHasher)

	_, err = New(minhash.NewDefault(), 0, 5)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = New(minhash.NewDefault(), 5, -1)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestNewDefault(t *testing.T) {
	t.Parallel()

	idx := NewDefault()

	assert.Equal(t, DefaultNumBands, idx.NumBands())
	assert.Equal(t, DefaultNumRows, idx.NumRows())
	assert.Equal(t, minhash.DefaultNumHashes, idx.Hasher().NumHashes())
	assert.Equal(t, DefaultNumBands, idx.EffectiveBands())
}

// --- Query Tests ---.

func TestFindSimilar_ExcludesSelf(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("a", "the quick brown fox")

	assert.Empty(t, idx.FindSimilar("a", 0))
}

func TestFindSimilar_IdenticalTextsFindEachOther(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("a", "same words in the same order")
	idx.AddDocument("b", "same words in the same order")

	gotA := idx.FindSimilar("a", 1.0)
	gotB := idx.FindSimilar("b", 1.0)

	require.Len(t, gotA, 1)
	require.Len(t, gotB, 1)
	assert.Equal(t, Match{ID: "b", Similarity: 1.0}, gotA[0])
	assert.Equal(t, Match{ID: "a", Similarity: 1.0}, gotB[0])
}

func TestFindSimilar_UnknownID(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("a", "text")

	got := idx.FindSimilar("missing", 0)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindSimilar_TiesInInsertionOrder(t *testing.T) {
	t.Parallel()

	idx := NewDefault()

	for _, id := range []string{"c", "a", "b", "q"} {
		idx.AddDocument(id, "identical content everywhere")
	}

	assert.Equal(t, []string{"c", "a", "b"}, ids(idx.FindSimilar("q", 0)))
}

func TestFindSimilar_DescendingSimilarity(t *testing.T) {
	t.Parallel()

	idx, err := New(smallHasher(t, testSmallHashes), 1, 1)
	require.NoError(t, err)

	require.NoError(t, idx.Add("q", minhash.Signature{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, idx.Add("half", minhash.Signature{1, 2, 3, 4, 5, 0, 0, 0, 0, 0}))
	require.NoError(t, idx.Add("most", minhash.Signature{1, 2, 3, 4, 5, 6, 7, 8, 0, 0}))
	require.NoError(t, idx.Add("few", minhash.Signature{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}))

	got := idx.FindSimilar("q", 0.2)

	require.Len(t, got, 2)
	assert.Equal(t, "most", got[0].ID)
	assert.InDelta(t, 0.8, got[0].Similarity, 1e-9)
	assert.Equal(t, "half", got[1].ID)
	assert.InDelta(t, 0.5, got[1].Similarity, 1e-9)
}

func TestFindSimilarByText_EndToEnd(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("d1", "the quick brown fox")
	idx.AddDocument("d2", "the quick brown fax")
	idx.AddDocument("d3", "completely unrelated content about space travel")

	got := idx.FindSimilarByText("the quick brown fox", testHighThreshold)

	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Similarity, 0)
	assert.Equal(t, "d2", got[1].ID)
	assert.NotContains(t, ids(got), "d3")
}

func TestFindSimilarByText_EmptyIndex(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewDefault().FindSimilarByText("anything", 0))
}

func TestFindSimilar_NearDuplicateRecall(t *testing.T) {
	t.Parallel()

	idx := NewDefault()

	for i := range testRecallDocs {
		text := fmt.Sprintf("profile %d writes about travel photography and coffee number %d", i, i*7919)
		idx.AddDocument(fmt.Sprintf("orig-%d", i), text)
		idx.AddDocument(fmt.Sprintf("copy-%d", i), text+"!")
	}

	for i := range testRecallDocs {
		got := idx.FindSimilar(fmt.Sprintf("orig-%d", i), 0.8)

		assert.Contains(t, ids(got), fmt.Sprintf("copy-%d", i))
	}
}

// --- Band Layout Tests ---.

func TestBands_TruncatedTrailingBand(t *testing.T) {
	t.Parallel()

	// H=10, R=3, B=5: bands [0,3) [3,6) [6,9) [9,10); the fifth starts past H.
	idx, err := New(smallHasher(t, testSmallHashes), 5, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, idx.EffectiveBands())

	require.NoError(t, idx.Add("a", minhash.Signature{1, 2, 3, 4, 5, 6, 7, 8, 9, 42}))
	require.NoError(t, idx.Add("b", minhash.Signature{11, 12, 13, 14, 15, 16, 17, 18, 19, 42}))

	got := idx.FindSimilar("a", 0)

	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
	assert.InDelta(t, 0.1, got[0].Similarity, 1e-9)
}

func TestBands_TailIgnoredForBucketing(t *testing.T) {
	t.Parallel()

	// H=10, R=3, B=2: only [0,6) is bucketed.
	idx, err := New(smallHasher(t, testSmallHashes), 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.EffectiveBands())

	require.NoError(t, idx.Add("a", minhash.Signature{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, idx.Add("tail", minhash.Signature{0, 0, 0, 0, 0, 0, 7, 8, 9, 10}))

	assert.Empty(t, idx.Candidates("a"))
	assert.Empty(t, idx.FindSimilar("a", 0))
}

func TestBands_TailUsedForVerification(t *testing.T) {
	t.Parallel()

	idx, err := New(smallHasher(t, testSmallHashes), 2, 3)
	require.NoError(t, err)

	require.NoError(t, idx.Add("a", minhash.Signature{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, idx.Add("b", minhash.Signature{1, 2, 3, 0, 0, 0, 7, 8, 9, 10}))

	got := idx.FindSimilar("a", 0)

	require.Len(t, got, 1)
	assert.InDelta(t, 0.7, got[0].Similarity, 1e-9)
}

func TestBands_EqualValuesInDifferentBandsDoNotCollide(t *testing.T) {
	t.Parallel()

	idx, err := New(smallHasher(t, 6), 2, 3)
	require.NoError(t, err)

	require.NoError(t, idx.Add("a", minhash.Signature{5, 5, 5, 1, 2, 3}))
	require.NoError(t, idx.Add("b", minhash.Signature{7, 8, 9, 5, 5, 5}))

	assert.Empty(t, idx.Candidates("a"))
	assert.Empty(t, idx.Candidates("b"))
}

// --- Mutation Tests ---.

func TestAdd_SizeMismatch(t *testing.T) {
	t.Parallel()

	idx := NewDefault()

	err := idx.Add("a", minhash.Signature{1, 2, 3})

	require.ErrorIs(t, err, ErrSizeMismatch)
	assert.False(t, idx.Contains("a"))
}

func TestAddDocument_ReAddOverwritesSignature(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("x", "shared sentence about cats")
	idx.AddDocument("y", "shared sentence about cats")
	idx.AddDocument("y", "0123456789 ~!@#$%^&*")

	// y still sits in x's buckets, but verification uses its new signature.
	assert.Contains(t, idx.Candidates("x"), "y")
	assert.Empty(t, idx.FindSimilar("x", testHighThreshold))
	assert.Equal(t, 2, idx.Len())

	sig, ok := idx.Signature("y")
	require.True(t, ok)
	assert.Equal(t, idx.Hasher().Signature("0123456789 ~!@#$%^&*"), sig)
}

func TestRemove_Tombstone(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("a", "duplicate text")
	idx.AddDocument("b", "duplicate text")

	assert.True(t, idx.Remove("b"))
	assert.False(t, idx.Remove("b"))
	assert.False(t, idx.Remove("never-added"))

	assert.Equal(t, 1, idx.Len())
	assert.False(t, idx.Contains("b"))
	assert.Empty(t, idx.FindSimilar("a", 0))
	assert.Empty(t, idx.FindSimilar("b", 0))
	assert.NotContains(t, ids(idx.FindSimilarByText("duplicate text", 0)), "b")

	_, ok := idx.Signature("b")
	assert.False(t, ok)
}

func TestRemove_ReAddClearsTombstone(t *testing.T) {
	t.Parallel()

	idx := NewDefault()
	idx.AddDocument("a", "duplicate text")
	idx.AddDocument("b", "duplicate text")
	idx.AddDocument("c", "duplicate text")
	idx.Remove("a")
	idx.AddDocument("a", "duplicate text")

	assert.Equal(t, 3, idx.Len())
	// a keeps its original insertion position.
	assert.Equal(t, []string{"a", "b"}, ids(idx.FindSimilar("c", 1.0)))
}

func TestCandidates_UnknownID(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewDefault().Candidates("nope"))
}
