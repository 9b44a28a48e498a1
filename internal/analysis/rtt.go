package analysis

import (
	"errors"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/stats"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/window"
)

// ErrInvalidAlpha is returned when an EMA smoothing factor is outside (0, 1].
var ErrInvalidAlpha = errors.New("analysis: alpha must be in (0, 1]")

// RTTIndex answers range queries over the positive RTTs of a snapshot, in
// event order. Position i of the index is the i-th event with RTT > 0.
type RTTIndex struct {
	tree   *segtree.Tree
	events []model.WhatsAppEvent
}

// RangeStats aggregates positions [L, R]. An empty or invalid range reports
// Count 0 with the tree's sentinels.
type RangeStats struct {
	L     int     `json:"l"     yaml:"l"`
	R     int     `json:"r"     yaml:"r"`
	Count int     `json:"count" yaml:"count"`
	Min   int     `json:"min"   yaml:"min"`
	Max   int     `json:"max"   yaml:"max"`
	Sum   int64   `json:"sum"   yaml:"sum"`
	Avg   float64 `json:"avg"   yaml:"avg"`
}

// NewRTTIndex keeps the events with positive RTT.
func NewRTTIndex(events []model.WhatsAppEvent) *RTTIndex {
	kept := make([]model.WhatsAppEvent, 0, len(events))
	values := make([]int, 0, len(events))

	for _, e := range events {
		if e.RTT > 0 {
			kept = append(kept, e)
			values = append(values, e.RTT)
		}
	}

	return &RTTIndex{tree: segtree.New(values), events: kept}
}

// Len returns the number of indexed RTTs.
func (x *RTTIndex) Len() int {
	return x.tree.Len()
}

// Values returns the indexed RTTs.
func (x *RTTIndex) Values() []int {
	return x.tree.Data()
}

// Event returns the event at position i.
func (x *RTTIndex) Event(i int) (model.WhatsAppEvent, bool) {
	if i < 0 || i >= len(x.events) {
		return model.WhatsAppEvent{}, false
	}

	return x.events[i], true
}

// Range aggregates positions l..r inclusive.
func (x *RTTIndex) Range(l, r int) RangeStats {
	agg := x.tree.Query(l, r)
	rs := RangeStats{L: l, R: r, Min: agg.Min, Max: agg.Max, Sum: agg.Sum}

	if l <= r && l >= 0 && r < x.tree.Len() {
		rs.Count = r - l + 1
		rs.Avg = float64(agg.Sum) / float64(rs.Count)
	}

	return rs
}

// Update overwrites the RTT at position i. The stored event follows.
func (x *RTTIndex) Update(i, rtt int) bool {
	if !x.tree.Update(i, rtt) {
		return false
	}

	x.events[i].RTT = rtt

	return true
}

// EventsInRange returns the events whose RTT lies in [minRTT, maxRTT], in
// event order.
func (x *RTTIndex) EventsInRange(minRTT, maxRTT int) []model.WhatsAppEvent {
	idx := x.tree.IndicesInValueRange(minRTT, maxRTT)

	out := make([]model.WhatsAppEvent, 0, len(idx))
	for _, i := range idx {
		out = append(out, x.events[i])
	}

	return out
}

// Summary describes every indexed RTT.
func (x *RTTIndex) Summary() stats.Summary {
	return stats.Summarize(x.tree.Data())
}

// RollingPoint is the window state after one RTT.
type RollingPoint struct {
	EventID string  `json:"event_id" yaml:"event_id"`
	RTT     int     `json:"rtt"      yaml:"rtt"`
	Min     int     `json:"min"      yaml:"min"`
	Max     int     `json:"max"      yaml:"max"`
	Avg     float64 `json:"avg"      yaml:"avg"`
	EMA     float64 `json:"ema"      yaml:"ema"`
}

// RollingRTT slides a window of size over the positive RTTs in event order,
// alongside an exponential moving average with smoothing alpha.
func RollingRTT(events []model.WhatsAppEvent, size int, alpha float64) ([]RollingPoint, error) {
	w, err := window.New(size)
	if err != nil {
		return nil, err
	}

	if alpha <= 0 || alpha > 1 {
		return nil, ErrInvalidAlpha
	}

	ema := stats.NewEMA(alpha)
	out := make([]RollingPoint, 0, len(events))

	for _, e := range events {
		if e.RTT <= 0 {
			continue
		}

		w.Add(e.RTT)

		out = append(out, RollingPoint{
			EventID: e.ID,
			RTT:     e.RTT,
			Min:     w.Min(),
			Max:     w.Max(),
			Avg:     w.Average(),
			EMA:     ema.Update(float64(e.RTT)),
		})
	}

	return out, nil
}
