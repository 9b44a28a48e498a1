package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/internal/source"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/cms"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/huffman"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lsh"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/stats"
	"github.com/Sumatoshi-tech/chameleon/pkg/jsonutil"
)

const (
	percent      = 100
	anomalyBad   = 2.0
	anomalyWarn  = 1.0
	maxCellWidth = 48
)

// MatchesTable lists near-duplicate candidates for one query.
func MatchesTable(query string, matches []lsh.Match) Table {
	t := Table{
		Title:  "similar to " + query,
		Header: table.Row{"#", "ID", "Similarity"},
	}

	for i, m := range matches {
		t.Rows = append(t.Rows, table.Row{i + 1, m.ID, fmt.Sprintf("%.3f", m.Similarity)})
		t.Levels = append(t.Levels, SimilarityLevel(m.Similarity))
	}

	return t
}

// DuplicatesTable lists indexed pairs above the similarity threshold.
func DuplicatesTable(pairs []analysis.DuplicatePair) Table {
	t := Table{
		Title:  "near-duplicate profiles",
		Header: table.Row{"A", "B", "Similarity"},
	}

	for _, p := range pairs {
		t.Rows = append(t.Rows, table.Row{p.A, p.B, fmt.Sprintf("%.3f", p.Similarity)})
		t.Levels = append(t.Levels, SimilarityLevel(p.Similarity))
	}

	return t
}

// UsernamesTable lists lookalike usernames with an inline diff.
func UsernamesTable(pairs []analysis.UsernamePair) Table {
	t := Table{
		Title:  "lookalike usernames",
		Header: table.Row{"A", "B", "Diff", "Distance", "Similarity"},
	}

	for _, p := range pairs {
		t.Rows = append(t.Rows, table.Row{p.A, p.B, p.Diff, p.Distance, fmt.Sprintf("%.3f", p.Similarity)})
		t.Levels = append(t.Levels, SimilarityLevel(p.Similarity))
	}

	return t
}

// EngagementTable lists per-profile engagement.
func EngagementTable(rows []analysis.Engagement) Table {
	t := Table{
		Title:  "profile engagement",
		Header: table.Row{"Username", "Posts", "Followers", "Following", "Avg caption", "Rate %", "Top words"},
	}

	for _, e := range rows {
		t.Rows = append(t.Rows, table.Row{
			e.Username,
			humanize.Comma(int64(e.TotalPosts)),
			humanize.Comma(int64(e.TotalFollowers)),
			humanize.Comma(int64(e.TotalFollowing)),
			e.AvgCaptionLength,
			fmt.Sprintf("%.2f", e.EngagementRate),
			truncate(joinItems(e.TopWords), maxCellWidth),
		})
	}

	return t
}

// RankTable lists profiles by reach score.
func RankTable(rows []analysis.RankedProfile) Table {
	t := Table{
		Title:  "profile ranking",
		Header: table.Row{"Rank", "Username", "Score"},
	}

	for _, r := range rows {
		t.Rows = append(t.Rows, table.Row{r.Rank, r.Username, humanize.Comma(int64(r.Score))})
	}

	return t
}

// WordsTable lists the most frequent caption words.
func WordsTable(items []cms.Item) Table {
	t := Table{
		Title:  "caption words",
		Header: table.Row{"Word", "Count"},
	}

	for _, it := range items {
		t.Rows = append(t.Rows, table.Row{it.Key, humanize.Comma(it.Count)})
	}

	return t
}

// DevicesTable lists per-user device activity.
func DevicesTable(rows []analysis.UserDeviceStats) Table {
	t := Table{
		Title:  "device activity",
		Header: table.Row{"User", "Phone", "Events", "Devices", "Avg RTT", "Top presence"},
	}

	for _, u := range rows {
		t.Rows = append(t.Rows, table.Row{
			u.UserID, u.PhoneNumber, u.TotalEvents, u.UniqueDevices, u.AvgRTT, u.MostCommonPresence,
		})
	}

	return t
}

// TransitionsTable lists presence changes by frequency.
func TransitionsTable(rows []analysis.Transition) Table {
	t := Table{
		Title:  "presence transitions",
		Header: table.Row{"From", "To", "Count"},
	}

	for _, tr := range rows {
		t.Rows = append(t.Rows, table.Row{tr.From, tr.To, tr.Count})
	}

	return t
}

// AnomaliesTable lists events by deviation score.
func AnomaliesTable(rows []analysis.Anomaly) Table {
	t := Table{
		Title:  "rtt anomalies",
		Header: table.Row{"Event", "Phone", "Score"},
	}

	for _, a := range rows {
		t.Rows = append(t.Rows, table.Row{a.EventID, a.PhoneNumber, fmt.Sprintf("%.2f", a.Score)})

		switch {
		case a.Score >= anomalyBad:
			t.Levels = append(t.Levels, LevelBad)
		case a.Score >= anomalyWarn:
			t.Levels = append(t.Levels, LevelWarn)
		default:
			t.Levels = append(t.Levels, LevelNone)
		}
	}

	return t
}

// GroupsTable lists clusters of linked identifiers.
func GroupsTable(title string, groups [][]string) Table {
	t := Table{
		Title:  title,
		Header: table.Row{"#", "Size", "Members"},
	}

	for i, g := range groups {
		t.Rows = append(t.Rows, table.Row{i + 1, len(g), truncate(strings.Join(g, ", "), maxCellWidth)})
	}

	return t
}

// RangeTable shows aggregates for one RTT index range.
func RangeTable(rs analysis.RangeStats) Table {
	return Table{
		Title:  fmt.Sprintf("rtt range [%d, %d]", rs.L, rs.R),
		Header: table.Row{"Count", "Min", "Max", "Sum", "Avg"},
		Rows:   []table.Row{{rs.Count, rs.Min, rs.Max, humanize.Comma(rs.Sum), fmt.Sprintf("%.2f", rs.Avg)}},
	}
}

// RollingTable lists rolling RTT statistics per event.
func RollingTable(points []analysis.RollingPoint) Table {
	t := Table{
		Title:  "rolling rtt",
		Header: table.Row{"Event", "RTT", "Min", "Max", "Avg", "EMA"},
	}

	for _, p := range points {
		t.Rows = append(t.Rows, table.Row{
			p.EventID, p.RTT, p.Min, p.Max, fmt.Sprintf("%.1f", p.Avg), fmt.Sprintf("%.1f", p.EMA),
		})
	}

	return t
}

// SummaryTable shows a distribution summary under a label.
func SummaryTable(label string, s stats.Summary) Table {
	return Table{
		Title:  label,
		Header: table.Row{"Count", "Min", "Max", "Mean", "StdDev", "Median", "P95"},
		Rows: []table.Row{{
			s.Count,
			fmt.Sprintf("%.0f", s.Min), fmt.Sprintf("%.0f", s.Max),
			fmt.Sprintf("%.2f", s.Mean), fmt.Sprintf("%.2f", s.StdDev),
			fmt.Sprintf("%.0f", s.Median), fmt.Sprintf("%.0f", s.P95),
		}},
	}
}

// OverviewTable shows dataset totals.
func OverviewTable(o analysis.Overview) Table {
	t := Table{
		Title:  "overview",
		Header: table.Row{"Metric", "Value"},
		Rows: []table.Row{
			{"Profiles", humanize.Comma(int64(o.Profiles))},
			{"Posts", humanize.Comma(int64(o.Posts))},
			{"Events", humanize.Comma(int64(o.Events))},
			{"Users", humanize.Comma(int64(o.Users))},
			{"Device clusters", humanize.Comma(int64(o.DeviceClusters))},
			{"Followers (mean)", fmt.Sprintf("%.1f", o.Followers.Mean)},
			{"RTT (median)", fmt.Sprintf("%.0f", o.RTT.Median)},
			{"RTT (p95)", fmt.Sprintf("%.0f", o.RTT.P95)},
		},
	}

	for _, k := range sortedKeys(o.Presence) {
		t.Rows = append(t.Rows, table.Row{"Presence " + k, humanize.Comma(int64(o.Presence[k]))})
	}

	return t
}

// SnapshotTable describes a loaded snapshot relative to now.
func SnapshotTable(snap *source.Snapshot, now time.Time) Table {
	return Table{
		Title:  "snapshot",
		Header: table.Row{"Metric", "Value"},
		Rows: []table.Row{
			{"ID", snap.ID.String()},
			{"Fetched", humanize.RelTime(snap.FetchedAt, now, "ago", "from now")},
			{"Profiles", humanize.Comma(int64(len(snap.Profiles)))},
			{"Events", humanize.Comma(int64(len(snap.Events)))},
			{"Skipped profiles", snap.Stats.SkippedProfiles},
			{"Skipped events", snap.Stats.SkippedEvents},
			{"Duplicate events", snap.Stats.DuplicateEvents},
		},
	}
}

// Compression compares Huffman coding with LZ4 on one input.
type Compression struct {
	Input         string          `json:"input"           yaml:"input"`
	OriginalBytes int             `json:"original_bytes"  yaml:"original_bytes"`
	Huffman       huffman.Stats   `json:"huffman"         yaml:"huffman"`
	LZ4Bytes      int             `json:"lz4_bytes"       yaml:"lz4_bytes"`
	Codes         []huffman.Entry `json:"codes,omitempty" yaml:"codes,omitempty"`
}

// CompressionTable compares encoded sizes.
func CompressionTable(c Compression) Table {
	huffBytes := (c.Huffman.EncodedBits + 7) / 8

	return Table{
		Title:  "compression " + c.Input,
		Header: table.Row{"Codec", "Size", "Saved %"},
		Rows: []table.Row{
			{"original", humanize.Bytes(uint64(c.OriginalBytes)), "-"},
			{"huffman", humanize.Bytes(uint64(huffBytes)), fmt.Sprintf("%.1f", c.Huffman.SavedPercent)},
			{"lz4", humanize.Bytes(uint64(c.LZ4Bytes)), fmt.Sprintf("%.1f", savedPercent(c.OriginalBytes, c.LZ4Bytes))},
		},
		Footer: fmt.Sprintf("%d distinct symbols", c.Huffman.Symbols),
	}
}

// CodesTable lists the Huffman code table.
func CodesTable(entries []huffman.Entry) Table {
	t := Table{
		Title:  "huffman codes",
		Header: table.Row{"Symbol", "Frequency", "Code"},
	}

	for _, e := range entries {
		t.Rows = append(t.Rows, table.Row{fmt.Sprintf("%q", rune(e.Symbol)), e.Frequency, e.Code})
	}

	return t
}

func savedPercent(orig, encoded int) float64 {
	if orig == 0 {
		return 0
	}

	return float64(orig-encoded) / float64(orig) * percent
}

func joinItems(items []cms.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s(%d)", it.Key, it.Count)
	}

	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// ListTable lists plain strings under one column.
func ListTable(title, column string, items []string) Table {
	t := Table{Title: title, Header: table.Row{column}}

	for _, it := range items {
		t.Rows = append(t.Rows, table.Row{it})
	}

	return t
}

// ProfileTable shows one profile.
func ProfileTable(p model.InstagramProfile) Table {
	return Table{
		Title:  "profile " + p.Username,
		Header: table.Row{"Field", "Value"},
		Rows: []table.Row{
			{"ID", p.ID},
			{"User ID", p.UserID},
			{"Username", p.Username},
			{"Bio", truncate(p.Bio, maxCellWidth)},
			{"Posts", humanize.Comma(int64(p.PostsCount))},
			{"Followers", humanize.Comma(int64(p.FollowersCount))},
			{"Following", humanize.Comma(int64(p.FollowingCount))},
			{"Created", p.CreatedAt},
		},
	}
}

// EventsTable lists presence events.
func EventsTable(title string, events []model.WhatsAppEvent) Table {
	t := Table{
		Title:  title,
		Header: table.Row{"Event", "Phone", "Time", "Presence", "RTT", "Devices"},
	}

	for _, e := range events {
		t.Rows = append(t.Rows, table.Row{e.ID, e.PhoneNumber, e.EventTime, e.Presence, e.RTT, e.DeviceCount})
	}

	return t
}

// FieldsTable lists flattened JSON leaves.
func FieldsTable(title string, fields []jsonutil.Field) Table {
	t := Table{Title: title, Header: table.Row{"Path", "Value"}}

	for _, f := range fields {
		path := f.Path
		if path == "" {
			path = "$"
		}

		t.Rows = append(t.Rows, table.Row{path, truncate(f.Value, maxCellWidth)})
	}

	return t
}
