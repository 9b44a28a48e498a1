package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/bloom"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
)

const (
	tracerName = "chameleon/source"

	// dedupFP is the false-positive rate of the event id pre-filter.
	dedupFP = 0.001
)

// LoadStats counts rows dropped during decoding.
type LoadStats struct {
	SkippedProfiles int `json:"skipped_profiles" yaml:"skipped_profiles"`
	SkippedEvents   int `json:"skipped_events"   yaml:"skipped_events"`
	DuplicateEvents int `json:"duplicate_events" yaml:"duplicate_events"`
}

// Reader turns raw table rows into validated records. It implements Source.
type Reader struct {
	rows          RowSource
	profiles      *Validator
	events        *Validator
	logger        *slog.Logger
	tracer        trace.Tracer
	profilesTable string
	eventsTable   string

	mu    sync.Mutex
	stats LoadStats
}

// NewReader wraps rows with schema validation for the configured tables.
func NewReader(rows RowSource, cfg config.SourceConfig, opts ...Option) (*Reader, error) {
	o := buildOptions(opts)

	pv, err := ProfileValidator()
	if err != nil {
		return nil, err
	}

	ev, err := EventValidator()
	if err != nil {
		return nil, err
	}

	return &Reader{
		rows:          rows,
		profiles:      pv,
		events:        ev,
		logger:        o.logger,
		tracer:        otel.Tracer(tracerName),
		profilesTable: cfg.ProfilesTable,
		eventsTable:   cfg.EventsTable,
	}, nil
}

// Stats returns the drop counters accumulated so far.
func (r *Reader) Stats() LoadStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats
}

// Close closes the underlying row source when it holds resources.
func (r *Reader) Close() error {
	if c, ok := r.rows.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// Profiles reads and decodes the profiles table. Rows failing the schema
// are skipped and counted.
func (r *Reader) Profiles(ctx context.Context) ([]model.InstagramProfile, error) {
	ctx, span := r.tracer.Start(ctx, "source.profiles", trace.WithAttributes(attribute.String("table", r.profilesTable)))
	defer span.End()

	raw, err := r.rows.Rows(ctx, r.profilesTable)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.profilesTable, err)
	}

	out := make([]model.InstagramProfile, 0, len(raw))
	skipped := 0

	for i, item := range raw {
		if verr := r.profiles.Validate(item); verr != nil {
			r.logger.WarnContext(ctx, "skipping profile row", "table", r.profilesTable, "index", i, "error", verr)

			skipped++

			continue
		}

		row, _ := item.(map[string]any)
		out = append(out, model.ProfileFromRow(row))
	}

	r.mu.Lock()
	r.stats.SkippedProfiles += skipped
	r.mu.Unlock()

	span.SetAttributes(attribute.Int("rows", len(out)), attribute.Int("skipped", skipped))
	r.logger.InfoContext(ctx, "profiles loaded", "table", r.profilesTable, "rows", len(out), "skipped", skipped)

	return out, nil
}

// Events reads and decodes the events table. Rows failing the schema are
// skipped; repeated event ids keep their first occurrence.
func (r *Reader) Events(ctx context.Context) ([]model.WhatsAppEvent, error) {
	ctx, span := r.tracer.Start(ctx, "source.events", trace.WithAttributes(attribute.String("table", r.eventsTable)))
	defer span.End()

	raw, err := r.rows.Rows(ctx, r.eventsTable)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.eventsTable, err)
	}

	dedup := newDeduper(len(raw))
	out := make([]model.WhatsAppEvent, 0, len(raw))
	skipped, dups := 0, 0

	for i, item := range raw {
		if verr := r.events.Validate(item); verr != nil {
			r.logger.WarnContext(ctx, "skipping event row", "table", r.eventsTable, "index", i, "error", verr)

			skipped++

			continue
		}

		row, _ := item.(map[string]any)
		ev := model.EventFromRow(row)

		if dedup.seen(ev.ID) {
			dups++

			continue
		}

		out = append(out, ev)
	}

	r.mu.Lock()
	r.stats.SkippedEvents += skipped
	r.stats.DuplicateEvents += dups
	r.mu.Unlock()

	span.SetAttributes(attribute.Int("rows", len(out)), attribute.Int("skipped", skipped), attribute.Int("duplicates", dups))
	r.logger.InfoContext(ctx, "events loaded", "table", r.eventsTable, "rows", len(out), "skipped", skipped, "duplicates", dups)

	return out, nil
}

// deduper answers "seen before?" with a Bloom filter in front of an exact
// set, so only possible repeats pay for the map lookup.
type deduper struct {
	filter *bloom.Filter
	exact  map[string]struct{}
}

func newDeduper(n int) *deduper {
	f, err := bloom.NewWithEstimates(uint(max(n, 1)), dedupFP)
	if err != nil {
		f = nil
	}

	return &deduper{filter: f, exact: make(map[string]struct{}, n)}
}

func (d *deduper) seen(id string) bool {
	if d.filter != nil && !d.filter.TestAndAddString(id) {
		d.exact[id] = struct{}{}

		return false
	}

	if _, ok := d.exact[id]; ok {
		return true
	}

	d.exact[id] = struct{}{}

	return false
}
