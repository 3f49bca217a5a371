package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "ocean_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for one updater run.
type Metrics struct {
	registry *prometheus.Registry

	CategoryRuns   *prometheus.CounterVec // labels: category, outcome={success,error,skipped}
	RecordsWritten *prometheus.GaugeVec   // labels: category
	OutputBytes    *prometheus.GaugeVec   // labels: category
	LiveReadings   *prometheus.CounterVec // labels: category
	RunDuration    prometheus.Gauge

	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: source, outcome={success,error,status}
	FetchDuration *prometheus.HistogramVec // labels: source
}

// NewMetrics creates all updater metrics on a dedicated registry, so a run can
// push exactly its own series to a Pushgateway.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CategoryRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_runs_total",
			Help:      "Category updates by outcome.",
		}, []string{"category", "outcome"}),
		RecordsWritten: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_written",
			Help:      "Number of records in the last document written per category.",
		}, []string{"category"}),
		OutputBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Size of the last document written per category.",
		}, []string{"category"}),
		LiveReadings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_readings_total",
			Help:      "Records that received a live telemetry reading.",
		}, []string{"category"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the whole update run.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream HTTP requests by source host and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		m.CategoryRuns,
		m.RecordsWritten,
		m.OutputBytes,
		m.LiveReadings,
		m.RunDuration,
		m.FetchRequests,
		m.FetchDuration,
	)

	return m
}

// Gatherer exposes the run registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends the run's metrics to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
