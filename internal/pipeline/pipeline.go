// Package pipeline orchestrates one generation run: ingest records and
// geography, reshape into the two read-only projections, and render the
// output page. It runs once, synchronously; any stage error aborts the run
// with no partial output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/domain"
	"github.com/couchcryptid/covid-county-map/internal/observability"
	"github.com/couchcryptid/covid-county-map/internal/render"
	"github.com/jonboulle/clockwork"
)

// RecordSource provides the full county-day record set.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]domain.Record, error)
}

// GeographySource provides the filtered target-state geography.
type GeographySource interface {
	FetchCounties(ctx context.Context) (*domain.Geography, error)
}

// PageWriter renders a page to its final location.
type PageWriter interface {
	WriteFile(path string, data render.PageData) (int64, error)
}

// Options carries the run parameters lifted from config.
type Options struct {
	Title            string
	StateName        string
	DescriptionFile  string
	OutputFile       string
	PlayInterval     time.Duration
	StrictValidation bool
}

// Pipeline wires the stages together with observability.
type Pipeline struct {
	records   RecordSource
	geography GeographySource
	writer    PageWriter
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(records RecordSource, geography GeographySource, writer PageWriter, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		records:   records,
		geography: geography,
		writer:    writer,
		opts:      opts,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a page has been generated successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no page generated yet")
	}
	return nil
}

// Run executes one ingest-reshape-render cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	err := p.run(ctx)
	if err != nil {
		p.metrics.GenerateErrors.Inc()
		return err
	}
	p.metrics.GenerateDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	records, err := p.records.FetchRecords(ctx)
	if err != nil {
		return err
	}
	p.metrics.RecordsIngested.Add(float64(len(records)))

	if p.opts.StrictValidation {
		if err := domain.ValidateMonotonic(records); err != nil {
			return fmt.Errorf("strict validation: %w", err)
		}
	}

	geography, err := p.geography.FetchCounties(ctx)
	if err != nil {
		return err
	}

	startDate, endDate, err := p.reshapeBounds(records)
	if err != nil {
		return err
	}

	reshapeStart := time.Now()
	snapshot, err := domain.BuildSnapshot(records, geography.Counties, endDate)
	if err != nil {
		return err
	}
	index, err := domain.BuildTimeSeriesIndex(records, geography.Counties, startDate, endDate)
	if err != nil {
		return err
	}
	p.metrics.ReshapeDuration.Observe(time.Since(reshapeStart).Seconds())

	description, err := render.LoadDescription(p.opts.DescriptionFile)
	if err != nil {
		return err
	}

	data, err := render.BuildPageData(
		p.opts.Title, p.opts.StateName, description,
		snapshot, index, geography.FeatureCollection,
		startDate, endDate,
		p.opts.PlayInterval,
		p.clock.Now(),
	)
	if err != nil {
		return err
	}

	size, err := p.writer.WriteFile(p.opts.OutputFile, data)
	if err != nil {
		return err
	}
	p.metrics.PagesGenerated.Inc()
	p.metrics.PageBytes.Set(float64(size))

	p.logger.Info("page generated",
		"output", p.opts.OutputFile,
		"bytes", size,
		"counties", len(geography.Counties),
		"dates", len(index.Dates),
		"start_date", startDate,
		"end_date", endDate,
	)
	return nil
}

func (p *Pipeline) reshapeBounds(records []domain.Record) (string, string, error) {
	startDate, endDate, err := domain.DateBounds(records)
	if err != nil {
		return "", "", err
	}
	p.logger.Info("date bounds resolved",
		"effective_start", startDate, "end", endDate)
	return startDate, endDate, nil
}
