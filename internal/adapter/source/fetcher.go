// Package source downloads the CSV resources the pipeline starts from.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/observability"
	"github.com/couchcryptid/crime-map-etl/internal/table"
)

// ErrUnexpectedStatus is returned when an HTTP source answers with anything but 200.
var ErrUnexpectedStatus = errors.New("unexpected status")

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// Fetcher loads CSV resources over HTTP(S) or from local files. It never
// retries; a failed fetch is returned to the caller as-is.
type Fetcher struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. A zero timeout leaves the HTTP client without one.
func NewFetcher(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch reads the CSV at location into a table. resource names the input
// ("incidents", "offense_codes") for logs and metrics. location may be an
// http(s) URL, a file:// URL or a plain path.
func (f *Fetcher) Fetch(ctx context.Context, resource, location string) (*table.Table, error) {
	start := time.Now()

	tbl, err := f.fetch(ctx, location)
	if err != nil {
		f.metrics.IngestErrors.WithLabelValues(resource).Inc()
		f.logger.Error("fetch failed", "resource", resource, "location", location, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}

	elapsed := time.Since(start)
	f.metrics.IngestDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
	f.metrics.RowsIngested.WithLabelValues(resource).Add(float64(tbl.NumRows()))
	f.logger.Info("fetched",
		"resource", resource,
		"rows", tbl.NumRows(),
		"columns", len(tbl.Columns()),
		"duration", elapsed,
	)
	return tbl, nil
}

func (f *Fetcher) fetch(ctx context.Context, location string) (*table.Table, error) {
	u, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return f.fetchHTTP(ctx, location)
		case "file":
			return readFile(u.Path)
		}
	}
	return readFile(location)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	tbl, err := table.ReadCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tbl, nil
}

func readFile(path string) (*table.Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	tbl, err := table.ReadCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tbl, nil
}
