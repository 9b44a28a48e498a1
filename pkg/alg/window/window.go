// Package window provides a fixed-capacity sliding window over integers with
// O(1) sum and average and O(1) amortized minimum and maximum.
package window

import (
	"errors"
	"math"
)

// ErrInvalidSize is returned when the window capacity is not positive.
var ErrInvalidSize = errors.New("window: size must be positive")

// Window keeps the most recent values up to a fixed capacity and evicts the
// oldest first. It is not safe for concurrent use.
type Window struct {
	buf   []int
	head  int
	count int
	sum   int64
	seq   uint64

	// Monotonic deques of (sequence, value): minQ increasing, maxQ decreasing.
	minQ []entry
	maxQ []entry
}

type entry struct {
	seq uint64
	val int
}

// New creates a window holding at most size values.
func New(size int) (*Window, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	return &Window{buf: make([]int, size)}, nil
}

// Add appends v, evicting the oldest value when the window is full.
func (w *Window) Add(v int) {
	if w.count == len(w.buf) {
		w.sum -= int64(w.buf[w.head])
		w.buf[w.head] = v
		w.head = (w.head + 1) % len(w.buf)
	} else {
		w.buf[(w.head+w.count)%len(w.buf)] = v
		w.count++
	}

	w.sum += int64(v)
	w.push(v)
	w.seq++
}

func (w *Window) push(v int) {
	// Oldest retained sequence number after this add.
	oldest := w.seq + 1 - uint64(w.count)

	for len(w.minQ) > 0 && w.minQ[len(w.minQ)-1].val >= v {
		w.minQ = w.minQ[:len(w.minQ)-1]
	}

	for len(w.maxQ) > 0 && w.maxQ[len(w.maxQ)-1].val <= v {
		w.maxQ = w.maxQ[:len(w.maxQ)-1]
	}

	e := entry{seq: w.seq, val: v}
	w.minQ = append(w.minQ, e)
	w.maxQ = append(w.maxQ, e)

	for w.minQ[0].seq < oldest {
		w.minQ = w.minQ[1:]
	}

	for w.maxQ[0].seq < oldest {
		w.maxQ = w.maxQ[1:]
	}
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// Len returns the number of retained values.
func (w *Window) Len() int {
	return w.count
}

// IsFull reports whether the window holds Cap values.
func (w *Window) IsFull() bool {
	return w.count == len(w.buf)
}

// Sum returns the sum of the retained values.
func (w *Window) Sum() int64 {
	return w.sum
}

// Average returns the mean of the retained values, or 0 when empty.
func (w *Window) Average() float64 {
	if w.count == 0 {
		return 0
	}

	return float64(w.sum) / float64(w.count)
}

// Min returns the smallest retained value, or math.MaxInt when empty.
func (w *Window) Min() int {
	if w.count == 0 {
		return math.MaxInt
	}

	return w.minQ[0].val
}

// Max returns the largest retained value, or math.MinInt when empty.
func (w *Window) Max() int {
	if w.count == 0 {
		return math.MinInt
	}

	return w.maxQ[0].val
}

// Values returns a copy of the retained values, oldest first.
func (w *Window) Values() []int {
	out := make([]int, w.count)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}

	return out
}

// Reset empties the window without changing its capacity.
func (w *Window) Reset() {
	w.head, w.count, w.sum, w.seq = 0, 0, 0, 0
	w.minQ = w.minQ[:0]
	w.maxQ = w.maxQ[:0]
}
