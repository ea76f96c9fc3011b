package wikidata

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the query lifecycle and
// both retry layers. It is safe for concurrent use.
type MetricsCollector struct {
	queriesTotal     *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
	queriesInFlight  *prometheus.GaugeVec
	rateLimitWaits   *prometheus.CounterVec
	rateLimitWaitSec *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer; tests pass a private registry here.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		queriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikidata_queries_total",
				Help: "Total number of SPARQL queries completed successfully",
			},
			[]string{"method", "format", "status_code"},
		),
		queryDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wikidata_query_duration_seconds",
				Help:    "Duration of SPARQL query calls in seconds, including retry waits",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "format"},
		),
		queriesInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wikidata_queries_in_flight",
				Help: "Number of query calls currently in flight",
			},
			[]string{"method"},
		),
		rateLimitWaits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikidata_rate_limit_waits_total",
				Help: "Total number of server-dictated 429 waits",
			},
			[]string{"method"},
		),
		rateLimitWaitSec: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikidata_rate_limit_wait_seconds_total",
				Help: "Cumulative time spent honoring Retry-After waits",
			},
			[]string{"method"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikidata_errors_total",
				Help: "Total number of terminal query failures by error type",
			},
			[]string{"type"},
		),
	}
}

// RecordQueryStart marks a query call entering the in-flight gauge.
func (m *MetricsCollector) RecordQueryStart(method string) {
	m.queriesInFlight.WithLabelValues(method).Inc()
}

// RecordQueryEnd marks a query call leaving the in-flight gauge.
func (m *MetricsCollector) RecordQueryEnd(method string) {
	m.queriesInFlight.WithLabelValues(method).Dec()
}

// RecordQuery records a completed successful query.
func (m *MetricsCollector) RecordQuery(method, format string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	m.queriesTotal.WithLabelValues(method, format, code).Inc()
	m.queryDuration.WithLabelValues(method, format).Observe(duration.Seconds())
}

// RecordRateLimitWait records one 429 wait and its duration.
func (m *MetricsCollector) RecordRateLimitWait(method string, wait time.Duration) {
	m.rateLimitWaits.WithLabelValues(method).Inc()
	m.rateLimitWaitSec.WithLabelValues(method).Add(wait.Seconds())
}

// RecordError records a terminal failure by error type.
func (m *MetricsCollector) RecordError(errorType string) {
	m.errorsTotal.WithLabelValues(errorType).Inc()
}
