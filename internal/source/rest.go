package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sumatoshi-tech/chameleon/pkg/config"
	"github.com/Sumatoshi-tech/chameleon/pkg/jsonutil"
	"github.com/Sumatoshi-tech/chameleon/pkg/observability"
)

const (
	restPathPrefix = "/rest/v1/"
	maxErrorBody   = 512
)

// RESTClient reads tables from a PostgREST (Supabase) endpoint, one page
// at a time, paced by a token bucket.
type RESTClient struct {
	base     *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	metrics  *observability.REDMetrics
	logger   *slog.Logger
	apiKey   string
	filter   string
	pageSize int
}

// NewRESTClient builds a client from cfg. A zero rate limit disables pacing.
func NewRESTClient(cfg config.SourceConfig, opts ...Option) (*RESTClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", config.ErrMissingBaseURL, cfg.BaseURL)
	}

	o := buildOptions(opts)

	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &RESTClient{
		base:     base,
		http:     client,
		limiter:  rate.NewLimiter(limit, max(cfg.RateBurst, 1)),
		metrics:  o.metrics,
		logger:   o.logger,
		apiKey:   cfg.APIKey,
		filter:   strings.TrimPrefix(cfg.Filter, "?"),
		pageSize: max(cfg.PageSize, 1),
	}, nil
}

// Rows fetches every page of table until a short page.
func (c *RESTClient) Rows(ctx context.Context, table string) ([]any, error) {
	var rows []any

	for offset := 0; ; offset += c.pageSize {
		page, err := c.page(ctx, table, offset)
		if err != nil {
			return nil, err
		}

		rows = append(rows, page...)
		c.metrics.RecordRows(ctx, table, len(page))

		if len(page) < c.pageSize {
			return rows, nil
		}
	}
}

func (c *RESTClient) pageURL(table string, offset int) string {
	u := *c.base
	u.Path += restPathPrefix + url.PathEscape(table)

	q := url.Values{}
	q.Set("select", "*")
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))

	u.RawQuery = q.Encode()
	if c.filter != "" {
		u.RawQuery += "&" + c.filter
	}

	return u.String()
}

func (c *RESTClient) page(ctx context.Context, table string, offset int) (rows []any, err error) {
	op := "fetch " + table
	start := time.Now()

	done := c.metrics.TrackInflight(ctx, op)
	defer func() {
		done()
		c.metrics.RecordRequest(ctx, op, observability.StatusFor(err), time.Since(start))
	}()

	if err = c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(table, offset), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", table, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Table: table, Code: resp.StatusCode, Body: string(body[:min(len(body), maxErrorBody)])}
	}

	parsed, err := jsonutil.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s page: %w", table, err)
	}

	rows, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: table %s", ErrUnexpectedPayload, table)
	}

	c.logger.DebugContext(ctx, "page fetched", "table", table, "offset", offset, "rows", len(rows))

	return rows, nil
}
