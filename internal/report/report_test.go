package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/chameleon/internal/analysis"
	"github.com/Sumatoshi-tech/chameleon/internal/report"
	"github.com/Sumatoshi-tech/chameleon/internal/source"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/huffman"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/lsh"
)

const ansiEscape = "\x1b["

func sampleMatches() []lsh.Match {
	return []lsh.Match{
		{ID: "p2", Similarity: 0.91},
		{ID: "p7", Similarity: 0.65},
		{ID: "p9", Similarity: 0.4},
	}
}

// --- Format Tests ---.

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]report.Format{
		"":       report.FormatTable,
		"table":  report.FormatTable,
		" JSON ": report.FormatJSON,
		"yaml":   report.FormatYAML,
	} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := report.ParseFormat("xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.New(&bytes.Buffer{}, report.Format("csv")).Render(nil, report.Table{})
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

// --- Table Tests ---.

func TestRender_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := report.New(&buf, report.FormatTable)
	require.NoError(t, r.Render(sampleMatches(), report.MatchesTable("p1", sampleMatches())))

	out := buf.String()
	assert.Contains(t, out, "=== SIMILAR TO P1 ===")
	assert.Contains(t, out, "p2")
	assert.Contains(t, out, "0.910")
	assert.Contains(t, out, "Total: 3 items")
	assert.NotContains(t, out, ansiEscape)
}

func TestRender_TableLimit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := report.New(&buf, report.FormatTable, report.WithLimit(1))
	require.NoError(t, r.Render(nil, report.MatchesTable("p1", sampleMatches())))

	out := buf.String()
	assert.Contains(t, out, "p2")
	assert.NotContains(t, out, "p7")
	assert.Contains(t, out, "Total: 3 items")
}

func TestRender_TableColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := report.New(&buf, report.FormatTable, report.WithColor(true))
	require.NoError(t, r.Render(nil, report.MatchesTable("p1", sampleMatches())))

	assert.Contains(t, buf.String(), ansiEscape)
}

func TestRender_SingleRowHasNoTotal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rs := analysis.RangeStats{L: 0, R: 2, Count: 3, Min: 50, Max: 500, Sum: 650, Avg: 216.67}
	require.NoError(t, report.New(&buf, report.FormatTable).Render(rs, report.RangeTable(rs)))

	out := buf.String()
	assert.Contains(t, out, "RTT RANGE [0, 2]")
	assert.Contains(t, out, "216.67")
	assert.NotContains(t, out, "Total:")
}

// --- Structured Output Tests ---.

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := report.New(&buf, report.FormatJSON)
	require.NoError(t, r.Render(sampleMatches(), report.Table{}))

	var got []lsh.Match
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleMatches(), got)
}

func TestRender_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	pairs := []analysis.DuplicatePair{{A: "p1", B: "p2", Similarity: 1}}
	require.NoError(t, report.New(&buf, report.FormatYAML).Render(pairs, report.DuplicatesTable(pairs)))

	var got []analysis.DuplicatePair
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, pairs, got)
	assert.Contains(t, buf.String(), "similarity: 1")
}

// --- Builder Tests ---.

func TestSimilarityLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, report.LevelBad, report.SimilarityLevel(0.95))
	assert.Equal(t, report.LevelWarn, report.SimilarityLevel(0.6))
	assert.Equal(t, report.LevelGood, report.SimilarityLevel(0.2))
}

func TestAnomaliesTable_Levels(t *testing.T) {
	t.Parallel()

	tbl := report.AnomaliesTable([]analysis.Anomaly{
		{EventID: "e1", Score: 2.5},
		{EventID: "e2", Score: 1.2},
		{EventID: "e3", Score: 0.1},
	})

	assert.Equal(t, []report.Level{report.LevelBad, report.LevelWarn, report.LevelNone}, tbl.Levels)
	assert.Equal(t, table.Row{"e1", "", "2.50"}, tbl.Rows[0])
}

func TestOverviewTable_HumanizedCounts(t *testing.T) {
	t.Parallel()

	tbl := report.OverviewTable(analysis.Overview{
		Profiles: 12345,
		Presence: map[string]int{"unavailable": 2, "available": 3},
	})

	assert.Equal(t, table.Row{"Profiles", "12,345"}, tbl.Rows[0])

	last := tbl.Rows[len(tbl.Rows)-1]
	assert.Equal(t, "Presence unavailable", last[0])
	assert.Equal(t, "Presence available", tbl.Rows[len(tbl.Rows)-2][0])
}

func TestSnapshotTable_RelativeTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	snap := &source.Snapshot{ID: uuid.New(), FetchedAt: now.Add(-3 * time.Hour)}

	tbl := report.SnapshotTable(snap, now)
	assert.Equal(t, "3 hours ago", tbl.Rows[1][1])
}

func TestCompressionTable(t *testing.T) {
	t.Parallel()

	_, _, st, err := huffman.Compress([]byte("aaaabbc"))
	require.NoError(t, err)

	tbl := report.CompressionTable(report.Compression{
		Input: "inline", OriginalBytes: 2000, Huffman: st, LZ4Bytes: 1000,
	})

	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "2.0 kB", tbl.Rows[0][1])
	assert.Equal(t, "50.0", tbl.Rows[2][2])
	assert.Equal(t, "3 distinct symbols", tbl.Footer)
}

func TestEngagementTable_TruncatesWords(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 80)
	tbl := report.EngagementTable([]analysis.Engagement{{Username: "a", TopWords: nil}})
	assert.Equal(t, "", tbl.Rows[0][6])

	groups := report.GroupsTable("clusters", [][]string{{long}})
	cell, ok := groups.Rows[0][2].(string)
	require.True(t, ok)
	assert.Len(t, []rune(cell), 48)
	assert.True(t, strings.HasSuffix(cell, "…"))
}

// --- Chart Tests ---.

func TestWriteRTTChart(t *testing.T) {
	t.Parallel()

	points := []analysis.RollingPoint{
		{EventID: "e1", RTT: 100, Min: 100, Max: 100, Avg: 100, EMA: 100},
		{EventID: "e2", RTT: 300, Min: 100, Max: 300, Avg: 200, EMA: 200},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteRTTChart(&buf, points))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Round-trip time")
	assert.Contains(t, out, "EMA")
}

func TestWriteRTTChart_Empty(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, report.WriteRTTChart(&bytes.Buffer{}, nil), report.ErrNoPoints)
}

func TestWriteRTTChartFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rtt.html")
	points := []analysis.RollingPoint{{EventID: "e1", RTT: 10, Min: 10, Max: 10, Avg: 10, EMA: 10}}

	require.NoError(t, report.WriteRTTChartFile(path, points))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "e1")
}
