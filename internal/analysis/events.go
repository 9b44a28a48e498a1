package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/stats"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/unionfind"
)

// PresenceStats describes the events of one presence value.
type PresenceStats struct {
	Presence   string  `json:"presence"   yaml:"presence"`
	Count      int     `json:"count"      yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	AvgRTT     int     `json:"avg_rtt"    yaml:"avg_rtt"`
	MinRTT     int     `json:"min_rtt"    yaml:"min_rtt"`
	MaxRTT     int     `json:"max_rtt"    yaml:"max_rtt"`
}

// UserDeviceStats describes one user's events.
type UserDeviceStats struct {
	UserID             string          `json:"user_id"              yaml:"user_id"`
	PhoneNumber        string          `json:"phone_number"         yaml:"phone_number"`
	MostCommonPresence string          `json:"most_common_presence" yaml:"most_common_presence"`
	Presence           []PresenceStats `json:"presence"             yaml:"presence"`
	TotalEvents        int             `json:"total_events"         yaml:"total_events"`
	UniqueDevices      int             `json:"unique_devices"       yaml:"unique_devices"`
	AvgRTT             int             `json:"avg_rtt"              yaml:"avg_rtt"`
}

// UserKey groups events: user id, else phone number.
func UserKey(e model.WhatsAppEvent) string {
	if e.UserID != "" {
		return e.UserID
	}

	return e.PhoneNumber
}

type userAcc struct {
	stats    UserDeviceStats
	rtts     []int
	presence map[string][]int
	counts   map[string]int
	jids     map[string]struct{}
	maxCount int
}

// DeviceStats summarizes events per user in order of first appearance.
// RTT aggregates consider positive RTTs only. Unique devices counts distinct
// jids, falling back to the largest reported device_count when no jids were
// sent. Presence rows are ordered by count, then name.
func DeviceStats(events []model.WhatsAppEvent) []UserDeviceStats {
	order := make([]string, 0)
	users := make(map[string]*userAcc)

	for _, e := range events {
		key := UserKey(e)

		acc, ok := users[key]
		if !ok {
			acc = &userAcc{
				stats:    UserDeviceStats{UserID: e.UserID, PhoneNumber: e.PhoneNumber},
				presence: make(map[string][]int),
				counts:   make(map[string]int),
				jids:     make(map[string]struct{}),
			}
			users[key] = acc
			order = append(order, key)
		}

		acc.stats.TotalEvents++
		acc.counts[e.Presence]++
		acc.maxCount = max(acc.maxCount, e.DeviceCount)

		if acc.stats.PhoneNumber == "" {
			acc.stats.PhoneNumber = e.PhoneNumber
		}

		if _, ok := acc.presence[e.Presence]; !ok {
			acc.presence[e.Presence] = nil
		}

		if e.RTT > 0 {
			acc.rtts = append(acc.rtts, e.RTT)
			acc.presence[e.Presence] = append(acc.presence[e.Presence], e.RTT)
		}

		for _, d := range e.Devices {
			if d.JID != "" {
				acc.jids[d.JID] = struct{}{}
			}
		}
	}

	out := make([]UserDeviceStats, 0, len(order))

	for _, key := range order {
		acc := users[key]
		s := acc.stats

		s.UniqueDevices = len(acc.jids)
		if s.UniqueDevices == 0 {
			s.UniqueDevices = acc.maxCount
		}

		s.AvgRTT = roundMean(acc.rtts)
		s.Presence = presenceBreakdown(acc, s.TotalEvents)

		if len(s.Presence) > 0 {
			s.MostCommonPresence = s.Presence[0].Presence
		}

		out = append(out, s)
	}

	return out
}

func presenceBreakdown(acc *userAcc, total int) []PresenceStats {
	out := make([]PresenceStats, 0, len(acc.counts))

	for presence, count := range acc.counts {
		rtts := acc.presence[presence]
		ps := PresenceStats{
			Presence:   presence,
			Count:      count,
			Percentage: 100 * float64(count) / float64(total),
			AvgRTT:     roundMean(rtts),
		}

		if lo, hi, ok := stats.MinMax(rtts); ok {
			ps.MinRTT, ps.MaxRTT = lo, hi
		}

		out = append(out, ps)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Presence < out[j].Presence
	})

	return out
}

func roundMean(values []int) int {
	if len(values) == 0 {
		return 0
	}

	return int(math.Round(stats.Mean(values)))
}

// DeviceClusters groups device jids that appeared together in an event.
// Groups are ordered by size, then by first appearance; singletons are
// included.
func DeviceClusters(events []model.WhatsAppEvent) [][]string {
	set := unionfind.New()

	for _, e := range events {
		first := ""

		for _, d := range e.Devices {
			if d.JID == "" {
				continue
			}

			set.Add(d.JID)

			if first == "" {
				first = d.JID

				continue
			}

			set.Union(first, d.JID)
		}
	}

	return set.LargestGroups()
}

const userPrefix = "user:"

// IdentityGroups links Instagram usernames and WhatsApp phone numbers that
// share a user id. Members are prefixed "ig:" or "wa:"; only groups spanning
// more than one identity are returned.
func IdentityGroups(profiles []model.InstagramProfile, events []model.WhatsAppEvent) [][]string {
	set := unionfind.New()

	link := func(userID, member string) {
		set.Add(member)

		if userID != "" {
			set.Union(userPrefix+userID, member)
		}
	}

	for _, p := range profiles {
		if p.Username != "" {
			link(p.UserID, "ig:"+p.Username)
		}
	}

	for _, e := range events {
		if e.PhoneNumber != "" {
			link(e.UserID, "wa:"+e.PhoneNumber)
		}
	}

	out := make([][]string, 0)

	for _, group := range set.LargestGroups() {
		members := make([]string, 0, len(group))

		for _, m := range group {
			if strings.HasPrefix(m, userPrefix) {
				continue
			}

			members = append(members, m)
		}

		if len(members) > 1 {
			out = append(out, members)
		}
	}

	return out
}

// Transition counts one presence change.
type Transition struct {
	From  string `json:"from"  yaml:"from"`
	To    string `json:"to"    yaml:"to"`
	Count int    `json:"count" yaml:"count"`
}

// PresenceTransitions counts presence changes between consecutive events
// of the same user, ordered by event time (unparseable times sort last,
// keeping input order). Repeats of the same presence are not transitions.
// Results are ordered by count, then From, then To.
func PresenceTransitions(events []model.WhatsAppEvent) []Transition {
	byUser := make(map[string][]int)
	order := make([]string, 0)

	for i, e := range events {
		key := UserKey(e)
		if _, ok := byUser[key]; !ok {
			order = append(order, key)
		}

		byUser[key] = append(byUser[key], i)
	}

	counts := make(map[[2]string]int)

	for _, key := range order {
		idx := byUser[key]
		sortByEventTime(events, idx)

		for k := 1; k < len(idx); k++ {
			from, to := events[idx[k-1]].Presence, events[idx[k]].Presence
			if from != to {
				counts[[2]string{from, to}]++
			}
		}
	}

	out := make([]Transition, 0, len(counts))
	for pair, n := range counts {
		out = append(out, Transition{From: pair[0], To: pair[1], Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		switch {
		case out[i].Count != out[j].Count:
			return out[i].Count > out[j].Count
		case out[i].From != out[j].From:
			return out[i].From < out[j].From
		default:
			return out[i].To < out[j].To
		}
	})

	return out
}

func sortByEventTime(events []model.WhatsAppEvent, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		ta, okA := events[idx[a]].Time()
		tb, okB := events[idx[b]].Time()

		switch {
		case okA && okB:
			return ta.Before(tb)
		default:
			return okA && !okB
		}
	})
}

// Anomaly scores how far an event sits from the average device count and
// RTT.
type Anomaly struct {
	EventID     string  `json:"event_id"     yaml:"event_id"`
	PhoneNumber string  `json:"phone_number" yaml:"phone_number"`
	Score       float64 `json:"score"        yaml:"score"`
}

// rttScale converts RTT milliseconds into device-count units.
const rttScale = 100.0

// RankAnomalies scores each event |devices - mean devices| +
// |rtt - mean rtt| / 100 and orders them highest first; ties keep input
// order.
func RankAnomalies(events []model.WhatsAppEvent) []Anomaly {
	out := make([]Anomaly, 0, len(events))
	if len(events) == 0 {
		return out
	}

	devices := make([]int, len(events))
	rtts := make([]int, len(events))

	for i, e := range events {
		devices[i], rtts[i] = e.DeviceCount, e.RTT
	}

	meanDevices, meanRTT := stats.Mean(devices), stats.Mean(rtts)

	for _, e := range events {
		out = append(out, Anomaly{
			EventID:     e.ID,
			PhoneNumber: e.PhoneNumber,
			Score:       math.Abs(float64(e.DeviceCount)-meanDevices) + math.Abs(float64(e.RTT)-meanRTT)/rttScale,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	return out
}
