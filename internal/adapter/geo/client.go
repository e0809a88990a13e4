// Package geo ingests county boundary geography from a national GeoJSON
// FeatureCollection, filters it to one state, and derives the stable county
// reference order the reshaper aligns every metric array to.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/adapter/fetchcache"
	"github.com/couchcryptid/covid-county-map/internal/domain"
	"github.com/couchcryptid/covid-county-map/internal/observability"
)

// Client implements the pipeline's GeographySource.
type Client struct {
	loader    *fetchcache.Loader
	stateFIPS string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewClient creates a geography client for one state FIPS prefix. metrics may be nil.
func NewClient(url, cacheFile, stateFIPS string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		loader:    fetchcache.New(url, cacheFile, timeout, logger),
		stateFIPS: stateFIPS,
		logger:    logger,
		metrics:   metrics,
	}
}

// collection mirrors just enough GeoJSON structure to filter features;
// feature bodies stay raw so nothing is lost on re-marshal.
type collection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// featureProbe reads the identifying fields of one feature. The national
// counties dataset keys features by 5-digit FIPS in "id" and repeats the
// state code and county name in properties.
type featureProbe struct {
	ID         string `json:"id"`
	Properties struct {
		Name  string `json:"NAME"`
		State string `json:"STATE"`
	} `json:"properties"`
}

// FetchCounties obtains the national collection (cache-or-fetch), filters it
// to the configured state, and returns counties in ascending FIPS order.
// Failures are IngestionErrors; a state with zero matching features is one
// too, since an empty reference order can only produce an empty page.
func (c *Client) FetchCounties(ctx context.Context) (*domain.Geography, error) {
	payload, fromCache, err := c.loader.Load(ctx)
	if err != nil {
		return nil, &domain.IngestionError{Source: "geography", Err: err}
	}
	c.countRequest(fromCache)

	var coll collection
	if err := json.Unmarshal(payload, &coll); err != nil {
		return nil, &domain.IngestionError{Source: "geography", Err: fmt.Errorf("decode collection: %w", err)}
	}

	type entry struct {
		county  domain.County
		feature json.RawMessage
	}
	var entries []entry
	for i, raw := range coll.Features {
		var probe featureProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, &domain.IngestionError{Source: "geography", Err: fmt.Errorf("decode feature %d: %w", i, err)}
		}
		if !c.inState(probe) {
			continue
		}
		entries = append(entries, entry{
			county: domain.County{
				FIPS: probe.ID,
				Name: probe.Properties.Name,
				Key:  domain.CountyKey(probe.Properties.Name),
			},
			feature: raw,
		})
	}
	if len(entries) == 0 {
		return nil, &domain.IngestionError{
			Source: "geography",
			Err:    fmt.Errorf("no features for state FIPS %q", c.stateFIPS),
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].county.FIPS < entries[j].county.FIPS })

	geo := &domain.Geography{Counties: make([]domain.County, 0, len(entries))}
	filtered := collection{Type: "FeatureCollection", Features: make([]json.RawMessage, 0, len(entries))}
	for _, e := range entries {
		geo.Counties = append(geo.Counties, e.county)
		filtered.Features = append(filtered.Features, e.feature)
	}

	geo.FeatureCollection, err = json.Marshal(filtered)
	if err != nil {
		return nil, &domain.IngestionError{Source: "geography", Err: fmt.Errorf("encode filtered collection: %w", err)}
	}

	if c.metrics != nil {
		c.metrics.CountiesLoaded.Set(float64(len(geo.Counties)))
	}
	c.logger.Info("geography loaded",
		"state_fips", c.stateFIPS, "counties", len(geo.Counties), "from_cache", fromCache)
	return geo, nil
}

func (c *Client) inState(probe featureProbe) bool {
	if probe.Properties.State != "" {
		return probe.Properties.State == c.stateFIPS
	}
	return strings.HasPrefix(probe.ID, c.stateFIPS)
}

func (c *Client) countRequest(fromCache bool) {
	if c.metrics == nil {
		return
	}
	result := "fetch"
	if fromCache {
		result = "cache"
	}
	c.metrics.IngestRequests.WithLabelValues("geography", result).Inc()
}
