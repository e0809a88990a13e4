// Package health ingests county testing records from the NY State Department
// of Health Socrata endpoint, with a local cache file in front of it.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/adapter/fetchcache"
	"github.com/couchcryptid/covid-county-map/internal/domain"
	"github.com/couchcryptid/covid-county-map/internal/observability"
)

// Client implements the pipeline's RecordSource.
type Client struct {
	loader  *fetchcache.Loader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a records client. metrics may be nil.
func NewClient(url, cacheFile string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		loader:  fetchcache.New(url, cacheFile, timeout, logger),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchRecords obtains and parses the full record set. One fetch returns the
// whole dataset; there is no pagination and no retry. Any failure is an
// IngestionError and aborts the run.
func (c *Client) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	payload, fromCache, err := c.loader.Load(ctx)
	if err != nil {
		return nil, &domain.IngestionError{Source: "records", Err: err}
	}
	c.countRequest(fromCache)

	records, err := domain.ParseRecords(payload)
	if err != nil {
		return nil, err
	}
	c.logger.Info("records ingested", "count", len(records), "from_cache", fromCache)
	return records, nil
}

func (c *Client) countRequest(fromCache bool) {
	if c.metrics == nil {
		return
	}
	result := "fetch"
	if fromCache {
		result = "cache"
	}
	c.metrics.IngestRequests.WithLabelValues("records", result).Inc()
}
