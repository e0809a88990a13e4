package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// page generation pipeline.
type Metrics struct {
	RecordsIngested prometheus.Counter
	CountiesLoaded  prometheus.Gauge
	PagesGenerated  prometheus.Counter
	GenerateErrors  prometheus.Counter
	PageBytes       prometheus.Gauge

	// IngestRequests is labelled by source={records,geography} and
	// result={cache,fetch}.
	IngestRequests *prometheus.CounterVec

	ReshapeDuration  prometheus.Histogram
	GenerateDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsIngested,
		m.CountiesLoaded,
		m.PagesGenerated,
		m.GenerateErrors,
		m.PageBytes,
		m.IngestRequests,
		m.ReshapeDuration,
		m.GenerateDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_map",
			Name:      "records_ingested_total",
			Help:      "Total county-day records parsed from the data source.",
		}),
		CountiesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_map",
			Name:      "counties_loaded",
			Help:      "Number of target-state counties loaded from geography.",
		}),
		PagesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_map",
			Name:      "pages_generated_total",
			Help:      "Total successfully generated output pages.",
		}),
		GenerateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_map",
			Name:      "generate_errors_total",
			Help:      "Total failed generation runs.",
		}),
		PageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_map",
			Name:      "page_bytes",
			Help:      "Size of the most recently generated page in bytes.",
		}),
		IngestRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_map",
			Name:      "ingest_requests_total",
			Help:      "Ingestion requests by source and result (cache hit vs network fetch).",
		}, []string{"source", "result"}),
		ReshapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_map",
			Name:      "reshape_duration_seconds",
			Help:      "Duration of snapshot and time series index construction.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		GenerateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_map",
			Name:      "generate_duration_seconds",
			Help:      "Duration of a complete ingest-reshape-render run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
