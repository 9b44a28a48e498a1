// Package report renders analysis results as terminal tables, JSON, or YAML.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/chameleon/pkg/persist"
)

// Format selects the output encoding.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates s as a Format. Empty selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want table, json or yaml)", ErrUnknownFormat, s)
	}
}

// Level tags a table row for highlighting.
type Level int

// Row levels.
const (
	LevelNone Level = iota
	LevelGood
	LevelWarn
	LevelBad
)

// Table is a titled grid of cells.
type Table struct {
	Title  string
	Header table.Row
	Rows   []table.Row
	// Levels holds one entry per row; missing entries mean LevelNone.
	Levels []Level
	Footer string
}

// Renderer writes results to w in one Format.
type Renderer struct {
	w      io.Writer
	format Format
	color  bool
	limit  int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor enables ANSI highlighting in table output.
func WithColor(enabled bool) Option {
	return func(r *Renderer) { r.color = enabled }
}

// WithLimit truncates table output to n rows. Zero means no limit.
func WithLimit(n int) Option {
	return func(r *Renderer) { r.limit = n }
}

// New creates a Renderer.
func New(w io.Writer, format Format, opts ...Option) *Renderer {
	r := &Renderer{w: w, format: format}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render writes data as JSON or YAML, or t as a table.
func (r *Renderer) Render(data any, t Table) error {
	switch r.format {
	case FormatJSON:
		return persist.NewJSONCodec().Encode(r.w, data)
	case FormatYAML:
		return persist.YAMLCodec{}.Encode(r.w, data)
	case FormatTable, "":
		return r.writeTable(t)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, r.format)
	}
}

func (r *Renderer) writeTable(t Table) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	if t.Header != nil {
		tbl.AppendHeader(t.Header)
	}

	rows := t.Rows
	if r.limit > 0 && len(rows) > r.limit {
		rows = rows[:r.limit]
	}

	for i, row := range rows {
		lvl := LevelNone
		if i < len(t.Levels) {
			lvl = t.Levels[i]
		}

		tbl.AppendRow(r.paint(row, lvl))
	}

	footer := t.Footer
	if footer == "" && len(t.Rows) > 1 {
		footer = fmt.Sprintf("Total: %d items", len(t.Rows))
	}

	if footer != "" {
		tbl.AppendFooter(table.Row{footer})
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString(r.colorize(color.New(color.Bold), "=== "+strings.ToUpper(t.Title)+" ==="))
		b.WriteString("\n")
	}

	b.WriteString(tbl.Render())
	b.WriteString("\n")

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func (r *Renderer) paint(row table.Row, lvl Level) table.Row {
	c := levelColor(lvl)
	if c == nil || !r.color {
		return row
	}

	out := make(table.Row, len(row))
	for i, cell := range row {
		out[i] = r.colorize(c, fmt.Sprint(cell))
	}

	return out
}

func (r *Renderer) colorize(c *color.Color, s string) string {
	if !r.color {
		return s
	}

	c.EnableColor()

	return c.Sprint(s)
}

func levelColor(lvl Level) *color.Color {
	switch lvl {
	case LevelGood:
		return color.New(color.FgGreen)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelBad:
		return color.New(color.FgRed)
	default:
		return nil
	}
}

// SimilarityLevel grades a similarity in [0, 1]; high similarity is the
// interesting case and is marked bad.
func SimilarityLevel(sim float64) Level {
	switch {
	case sim >= similarityHigh:
		return LevelBad
	case sim >= similarityMedium:
		return LevelWarn
	default:
		return LevelGood
	}
}

const (
	similarityHigh   = 0.8
	similarityMedium = 0.6
)
