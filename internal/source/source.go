// Package source reads Instagram profiles and WhatsApp presence events from
// a PostgREST endpoint, a Postgres database or a local file, and bundles
// them into snapshots.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
	"github.com/Sumatoshi-tech/chameleon/pkg/observability"
)

var (
	// ErrInvalidRow wraps schema violations of a single row.
	ErrInvalidRow = errors.New("source: invalid row")

	// ErrTableNotFound is returned when a file holds no rows for a table.
	ErrTableNotFound = errors.New("source: table not found")

	// ErrUnexpectedPayload is returned when a response is not a JSON array.
	ErrUnexpectedPayload = errors.New("source: expected a JSON array of rows")

	// ErrUnknownKind is returned for an unsupported source kind.
	ErrUnknownKind = errors.New("source: unknown kind")
)

// Source yields decoded records.
type Source interface {
	Profiles(ctx context.Context) ([]model.InstagramProfile, error)
	Events(ctx context.Context) ([]model.WhatsAppEvent, error)
}

// RowSource yields the raw JSON rows of a table.
type RowSource interface {
	Rows(ctx context.Context, table string) ([]any, error)
}

// StatusError is a non-2xx response from the REST endpoint.
type StatusError struct {
	Table string
	Body  string
	Code  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source: %s: HTTP %d: %s", e.Table, e.Code, e.Body)
}

// Option configures sources built by Open.
type Option func(*options)

type options struct {
	httpClient *http.Client
	metrics    *observability.REDMetrics
	logger     *slog.Logger
}

// WithHTTPClient replaces the REST client's http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetrics records fetches and row counts.
func WithMetrics(m *observability.REDMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Open builds the Reader for cfg.Kind. The caller closes it.
func Open(ctx context.Context, cfg config.SourceConfig, opts ...Option) (*Reader, error) {
	var (
		rows RowSource
		err  error
	)

	switch cfg.Kind {
	case config.SourceREST:
		rows, err = NewRESTClient(cfg, opts...)
	case config.SourcePostgres:
		rows, err = OpenPostgres(ctx, cfg)
	case config.SourceFile:
		rows = NewFileSource(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	if err != nil {
		return nil, err
	}

	return NewReader(rows, cfg, opts...)
}
