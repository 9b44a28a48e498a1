// Package stats provides descriptive statistics over integer and float
// samples. Standard deviations are population deviations (divide by n).
package stats

import (
	"math"
	"slices"
)

// Number is any integer or floating-point type.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Well-known percentile thresholds.
const (
	PercentileMedian = 0.5
	PercentileP95    = 0.95
)

// Sum returns the sum of values as float64.
func Sum[T Number](values []T) float64 {
	var total float64
	for _, v := range values {
		total += float64(v)
	}

	return total
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}

	return Sum(values) / float64(len(values))
}

// MeanStdDev returns the mean and population standard deviation.
func MeanStdDev[T Number](values []T) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	mean = Mean(values)

	var sq float64

	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}

	return mean, math.Sqrt(sq / float64(len(values)))
}

// Percentile returns the p-th percentile (p in [0, 1]) with linear
// interpolation between closest ranks. values is not modified.
func Percentile[T Number](values []T, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = float64(v)
	}

	slices.Sort(sorted)

	p = max(0, min(p, 1))
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 50th percentile.
func Median[T Number](values []T) float64 {
	return Percentile(values, PercentileMedian)
}

// MinMax returns the smallest and largest values; ok is false when values
// is empty.
func MinMax[T Number](values []T) (lo, hi T, ok bool) {
	if len(values) == 0 {
		return lo, hi, false
	}

	return slices.Min(values), slices.Max(values), true
}

// Summary is a one-pass description of a sample.
type Summary struct {
	Count  int     `json:"count"   yaml:"count"`
	Min    float64 `json:"min"     yaml:"min"`
	Max    float64 `json:"max"     yaml:"max"`
	Mean   float64 `json:"mean"    yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Median float64 `json:"median"  yaml:"median"`
	P95    float64 `json:"p95"     yaml:"p95"`
}

// Summarize describes values. An empty sample yields the zero Summary.
func Summarize[T Number](values []T) Summary {
	lo, hi, ok := MinMax(values)
	if !ok {
		return Summary{}
	}

	mean, sd := MeanStdDev(values)

	return Summary{
		Count:  len(values),
		Min:    float64(lo),
		Max:    float64(hi),
		Mean:   mean,
		StdDev: sd,
		Median: Median(values),
		P95:    Percentile(values, PercentileP95),
	}
}

// EMA is an exponential moving average with a fixed smoothing factor.
type EMA struct {
	alpha float64
	value float64
	ready bool
}

// NewEMA creates an EMA with alpha in (0, 1]; larger alpha favors recent
// observations.
func NewEMA(alpha float64) *EMA {
	return &EMA{alpha: alpha}
}

// Update feeds v and returns the new average. The first observation seeds
// the average.
func (e *EMA) Update(v float64) float64 {
	if !e.ready {
		e.value, e.ready = v, true

		return v
	}

	e.value += e.alpha * (v - e.value)

	return e.value
}

// Value returns the current average, or 0 before any Update.
func (e *EMA) Value() float64 {
	return e.value
}
