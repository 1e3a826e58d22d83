package httpapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shapeseek/shapeseek"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shapeseek_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shapeseek_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	ingestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shapeseek_ingest_duration_seconds",
			Help:    "Duration of model ingestions in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ingestErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shapeseek_ingest_errors_total",
			Help: "Total number of failed model ingestions",
		},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shapeseek_search_duration_seconds",
			Help:    "Duration of similarity searches in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	searchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shapeseek_search_errors_total",
			Help: "Total number of failed similarity searches",
		},
	)

	rebuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shapeseek_index_rebuilds_total",
			Help: "Total number of index rebuilds",
		},
	)

	indexedVectors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shapeseek_indexed_vectors",
			Help: "Number of vectors currently in the index",
		},
	)

	flushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shapeseek_snapshot_flush_duration_seconds",
			Help:    "Duration of index snapshot flushes in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Compile-time check against the collector interface.
var _ shapeseek.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector exports Manager metrics through the process-wide
// Prometheus registry. Pass it to shapeseek.WithMetricsCollector.
type PrometheusCollector struct{}

func (PrometheusCollector) RecordIngest(duration time.Duration, err error) {
	ingestDuration.Observe(duration.Seconds())
	if err != nil {
		ingestErrors.Inc()
		return
	}
	indexedVectors.Inc()
}

func (PrometheusCollector) RecordSearch(k int, duration time.Duration, err error) {
	searchDuration.Observe(duration.Seconds())
	if err != nil {
		searchErrors.Inc()
	}
}

func (PrometheusCollector) RecordRebuild(count int, duration time.Duration, err error) {
	rebuildsTotal.Inc()
	if err == nil {
		indexedVectors.Set(float64(count))
	}
}

func (PrometheusCollector) RecordFlush(duration time.Duration, err error) {
	flushDuration.Observe(duration.Seconds())
}
