package window

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, size int) *Window {
	t.Helper()

	w, err := New(size)
	require.NoError(t, err)

	return w
}

func TestNew_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, math.MinInt} {
		w, err := New(size)

		require.ErrorIs(t, err, ErrInvalidSize)
		assert.Nil(t, w)
	}
}

func TestWindow_Empty(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 4)

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 4, w.Cap())
	assert.False(t, w.IsFull())
	assert.Equal(t, int64(0), w.Sum())
	assert.InDelta(t, 0.0, w.Average(), 0)
	assert.Equal(t, math.MaxInt, w.Min())
	assert.Equal(t, math.MinInt, w.Max())
	assert.Empty(t, w.Values())
}

func TestWindow_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 3)

	for v := 1; v <= 5; v++ {
		w.Add(v)
	}

	assert.Equal(t, []int{3, 4, 5}, w.Values())
	assert.Equal(t, int64(12), w.Sum())
	assert.InDelta(t, 4.0, w.Average(), 1e-12)
	assert.Equal(t, 3, w.Min())
	assert.Equal(t, 5, w.Max())
	assert.True(t, w.IsFull())
}

func TestWindow_PartiallyFilled(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 5)
	w.Add(10)
	w.Add(-4)

	assert.Equal(t, []int{10, -4}, w.Values())
	assert.False(t, w.IsFull())
	assert.Equal(t, -4, w.Min())
	assert.Equal(t, 10, w.Max())
	assert.InDelta(t, 3.0, w.Average(), 1e-12)
}

func TestWindow_SizeOne(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 1)
	w.Add(7)
	w.Add(2)

	assert.Equal(t, []int{2}, w.Values())
	assert.Equal(t, 2, w.Min())
	assert.Equal(t, 2, w.Max())
}

func TestWindow_MinMaxAfterEviction(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 3)

	for _, v := range []int{1, 9, 5, 4, 3} {
		w.Add(v)
	}

	// Retained: 5 4 3; both the old min 1 and old max 9 were evicted.
	assert.Equal(t, 3, w.Min())
	assert.Equal(t, 5, w.Max())
}

func TestWindow_ValuesIsCopy(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 2)
	w.Add(1)

	vals := w.Values()
	vals[0] = 99

	assert.Equal(t, []int{1}, w.Values())
}

func TestWindow_Reset(t *testing.T) {
	t.Parallel()

	w := mustNew(t, 2)
	w.Add(1)
	w.Add(2)
	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, math.MaxInt, w.Min())

	w.Add(6)

	assert.Equal(t, []int{6}, w.Values())
	assert.Equal(t, int64(6), w.Sum())
}

func TestWindow_RandomizedAgainstScan(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))

	for _, size := range []int{1, 2, 3, 8, 31} {
		w := mustNew(t, size)
		all := make([]int, 0)

		for range 300 {
			v := rng.IntN(201) - 100
			w.Add(v)
			all = append(all, v)

			tail := all[max(0, len(all)-size):]

			var sum int64
			for _, x := range tail {
				sum += int64(x)
			}

			require.Equal(t, tail, w.Values())
			require.Equal(t, sum, w.Sum())
			require.Equal(t, slices.Min(tail), w.Min())
			require.Equal(t, slices.Max(tail), w.Max())
		}
	}
}
