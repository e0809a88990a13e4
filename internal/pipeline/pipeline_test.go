package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/domain"
	"github.com/couchcryptid/covid-county-map/internal/observability"
	"github.com/couchcryptid/covid-county-map/internal/pipeline"
	"github.com/couchcryptid/covid-county-map/internal/render"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRecords struct {
	records []domain.Record
	err     error
}

func (m *mockRecords) FetchRecords(_ context.Context) ([]domain.Record, error) {
	return m.records, m.err
}

type mockGeography struct {
	geo *domain.Geography
	err error
}

func (m *mockGeography) FetchCounties(_ context.Context) (*domain.Geography, error) {
	return m.geo, m.err
}

type mockWriter struct {
	path    string
	data    render.PageData
	written int
	err     error
}

func (m *mockWriter) WriteFile(path string, data render.PageData) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.path = path
	m.data = data
	m.written++
	return 1234, nil
}

// --- fixtures ---

var fixtureGeography = &domain.Geography{
	Counties: []domain.County{
		{FIPS: "36001", Name: "Albany", Key: "albany"},
		{FIPS: "36005", Name: "Bronx", Key: "bronx"},
	},
	FeatureCollection: []byte(`{"type":"FeatureCollection","features":[]}`),
}

func fixtureRecords() []domain.Record {
	mk := func(county, date string, n int) domain.Record {
		return domain.Record{
			County: county, TestDate: date,
			NewPositives: n, CumulativePositives: n * 10,
			TotalTests: n * 100, CumulativeTests: n * 1000,
		}
	}
	return []domain.Record{
		mk("Albany", "2021-01-01", 1), // sparse first day: Bronx missing
		mk("Albany", "2021-01-02", 2),
		mk("Bronx", "2021-01-02", 3),
		mk("Albany", "2021-01-03", 4),
		mk("Bronx", "2021-01-03", 5),
	}
}

func newPipeline(records *mockRecords, geo *mockGeography, writer *mockWriter, opts pipeline.Options) *pipeline.Pipeline {
	if opts.Title == "" {
		opts.Title = "Test Page"
	}
	if opts.StateName == "" {
		opts.StateName = "New York"
	}
	if opts.OutputFile == "" {
		opts.OutputFile = "out.html"
	}
	if opts.PlayInterval == 0 {
		opts.PlayInterval = time.Second
	}
	clock := clockwork.NewFakeClockAt(time.Date(2021, 1, 4, 6, 0, 0, 0, time.UTC))
	return pipeline.New(records, geo, writer, opts, clock, slog.Default(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestRun_HappyPath(t *testing.T) {
	writer := &mockWriter{}
	p := newPipeline(&mockRecords{records: fixtureRecords()}, &mockGeography{geo: fixtureGeography}, writer, pipeline.Options{})

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 1, writer.written)
	assert.Equal(t, "out.html", writer.path)
	assert.NoError(t, p.CheckReadiness(context.Background()))

	// Effective start skips the sparse first day; end is the latest date.
	assert.Equal(t, "2021-01-02", writer.data.StartDate)
	assert.Equal(t, "2021-01-03", writer.data.EndDate)
	assert.Equal(t, "2021-01-04T06:00:00Z", writer.data.GeneratedAt)

	// The sparse day is not in the embedded index.
	index := string(writer.data.Index)
	assert.NotContains(t, index, "2021-01-01")
	assert.Contains(t, index, "2021-01-02")

	// Snapshot holds the end date, aligned to geography order.
	snap := string(writer.data.Snapshot)
	assert.Contains(t, snap, `"date":"2021-01-03"`)
	assert.Contains(t, snap, `"new_positives":[4,5]`)
}

func TestRun_NotReadyBeforeFirstRun(t *testing.T) {
	p := newPipeline(&mockRecords{records: fixtureRecords()}, &mockGeography{geo: fixtureGeography}, &mockWriter{}, pipeline.Options{})
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestRun_IngestionErrorAborts(t *testing.T) {
	ingErr := &domain.IngestionError{Source: "records", Err: errors.New("endpoint down")}
	writer := &mockWriter{}
	p := newPipeline(&mockRecords{err: ingErr}, &mockGeography{geo: fixtureGeography}, writer, pipeline.Options{})

	err := p.Run(context.Background())

	var got *domain.IngestionError
	require.ErrorAs(t, err, &got)
	assert.Zero(t, writer.written)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestRun_GeographyErrorAborts(t *testing.T) {
	geoErr := &domain.IngestionError{Source: "geography", Err: errors.New("bad payload")}
	writer := &mockWriter{}
	p := newPipeline(&mockRecords{records: fixtureRecords()}, &mockGeography{err: geoErr}, writer, pipeline.Options{})

	require.Error(t, p.Run(context.Background()))
	assert.Zero(t, writer.written)
}

func TestRun_SingleDateFails(t *testing.T) {
	records := []domain.Record{
		{County: "Albany", TestDate: "2021-01-01"},
		{County: "Bronx", TestDate: "2021-01-01"},
	}
	p := newPipeline(&mockRecords{records: records}, &mockGeography{geo: fixtureGeography}, &mockWriter{}, pipeline.Options{})

	err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInsufficientDates)
}

func TestRun_MissingCountyFails(t *testing.T) {
	records := fixtureRecords()[:4] // Bronx missing on the end date
	writer := &mockWriter{}
	p := newPipeline(&mockRecords{records: records}, &mockGeography{geo: fixtureGeography}, writer, pipeline.Options{})

	err := p.Run(context.Background())

	var missing *domain.MissingCountyDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Bronx", missing.County)
	assert.Zero(t, writer.written)
}

func TestRun_StrictValidation(t *testing.T) {
	records := fixtureRecords()
	// Break monotonicity: Albany's cumulative positives drop on the last day.
	records = append(records, domain.Record{
		County: "Albany", TestDate: "2021-01-03", NewPositives: 4,
		CumulativePositives: 1, TotalTests: 400, CumulativeTests: 4000,
	})

	t.Run("off by default", func(t *testing.T) {
		p := newPipeline(&mockRecords{records: records}, &mockGeography{geo: fixtureGeography}, &mockWriter{}, pipeline.Options{})
		assert.NoError(t, p.Run(context.Background()))
	})

	t.Run("strict mode rejects", func(t *testing.T) {
		p := newPipeline(&mockRecords{records: records}, &mockGeography{geo: fixtureGeography}, &mockWriter{},
			pipeline.Options{StrictValidation: true})

		err := p.Run(context.Background())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "strict validation"))
	})
}

func TestRun_WriterErrorAborts(t *testing.T) {
	writer := &mockWriter{err: errors.New("disk full")}
	p := newPipeline(&mockRecords{records: fixtureRecords()}, &mockGeography{geo: fixtureGeography}, writer, pipeline.Options{})

	require.Error(t, p.Run(context.Background()))
	assert.Error(t, p.CheckReadiness(context.Background()))
}
