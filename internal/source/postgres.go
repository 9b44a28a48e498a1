package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Sumatoshi-tech/chameleon/pkg/config"
	"github.com/Sumatoshi-tech/chameleon/pkg/jsonutil"
)

const pingTimeout = 5 * time.Second

// PostgresSource reads tables directly, one row_to_json document per row.
type PostgresSource struct {
	db     *sql.DB
	filter string
}

// OpenPostgres connects with lib/pq and pings the server.
func OpenPostgres(ctx context.Context, cfg config.SourceConfig) (*PostgresSource, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		db.Close()

		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return NewPostgresSource(db, cfg.Filter), nil
}

// NewPostgresSource wraps an open database. filter is a trusted SQL
// predicate appended as a WHERE clause.
func NewPostgresSource(db *sql.DB, filter string) *PostgresSource {
	return &PostgresSource{db: db, filter: filter}
}

// Close closes the database.
func (p *PostgresSource) Close() error {
	return p.db.Close()
}

func buildRowsQuery(table, filter string) string {
	query := "SELECT row_to_json(t) FROM " + pq.QuoteIdentifier(table) + " AS t"
	if filter != "" {
		query += " WHERE " + filter
	}

	return query
}

// Rows returns every row of table as a decoded JSON object.
func (p *PostgresSource) Rows(ctx context.Context, table string) ([]any, error) {
	rs, err := p.db.QueryContext(ctx, buildRowsQuery(table, p.filter))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rs.Close()

	var rows []any

	for rs.Next() {
		var doc []byte
		if err = rs.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}

		row, perr := jsonutil.Parse(doc)
		if perr != nil {
			return nil, fmt.Errorf("decoding %s row: %w", table, perr)
		}

		rows = append(rows, row)
	}

	if err = rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}

	return rows, nil
}
