package unionfind

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	t.Parallel()

	s := New()

	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Count())

	rep, ok := s.Find("a")
	require.True(t, ok)
	assert.Equal(t, "a", rep)
}

func TestFind_Unknown(t *testing.T) {
	t.Parallel()

	_, ok := New().Find("ghost")

	assert.False(t, ok)
}

func TestUnion_MergesGroups(t *testing.T) {
	t.Parallel()

	s := New()

	assert.True(t, s.Union("a", "b"))
	assert.True(t, s.Union("c", "d"))
	assert.False(t, s.Union("b", "a"))
	assert.True(t, s.Union("b", "d"))

	assert.True(t, s.Connected("a", "c"))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 4, s.Len())

	ra, _ := s.Find("a")
	rd, _ := s.Find("d")
	assert.Equal(t, ra, rd)
}

func TestConnected_UnknownKeys(t *testing.T) {
	t.Parallel()

	s := New()
	s.Add("a")

	assert.False(t, s.Connected("a", "zzz"))
	assert.False(t, s.Connected("zzz", "zzz"))
	assert.True(t, s.Connected("a", "a"))
}

func TestGroups_DeterministicOrder(t *testing.T) {
	t.Parallel()

	s := New()

	for _, k := range []string{"d1", "d2", "d3", "d4", "d5"} {
		s.Add(k)
	}

	s.Union("d4", "d2")
	s.Union("d5", "d1")

	assert.Equal(t, [][]string{{"d1", "d5"}, {"d2", "d4"}, {"d3"}}, s.Groups())
}

func TestLargestGroups(t *testing.T) {
	t.Parallel()

	s := New()
	s.Add("solo")
	s.Union("x", "y")
	s.Union("y", "z")

	assert.Equal(t, [][]string{{"x", "y", "z"}, {"solo"}}, s.LargestGroups())
}

func TestUnion_LongChain(t *testing.T) {
	t.Parallel()

	s := New()

	for i := range 1000 {
		s.Union(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1))
	}

	assert.Equal(t, 1, s.Count())
	assert.True(t, s.Connected("n0", "n1000"))
}
