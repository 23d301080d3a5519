package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the obfuscation service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	reportsTotal        *prometheus.CounterVec
	countsObfuscated    *prometheus.CounterVec
	groupsSkipped       prometheus.Counter
}

// NewMetrics creates and registers the service collectors on a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laplace",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status code",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "laplace",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laplace",
			Name:      "reports_processed_total",
			Help:      "Reports processed by outcome",
		}, []string{"status"}),
		countsObfuscated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laplace",
			Name:      "counts_obfuscated_total",
			Help:      "Count fields obfuscated by category",
		}, []string{"category"}),
		groupsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "laplace",
			Name:      "groups_skipped_total",
			Help:      "Report groups left untouched due to an unrecognized category label",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.reportsTotal,
		m.countsObfuscated,
		m.groupsSkipped,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveReport records the outcome of one report obfuscation.
func (m *Metrics) ObserveReport(status string) {
	m.reportsTotal.WithLabelValues(status).Inc()
}

// ObserveCounts records rewritten counts for a category.
func (m *Metrics) ObserveCounts(category string, n uint64) {
	if n > 0 {
		m.countsObfuscated.WithLabelValues(category).Add(float64(n))
	}
}

// ObserveSkippedGroups records groups skipped for unrecognized labels.
func (m *Metrics) ObserveSkippedGroups(n uint64) {
	if n > 0 {
		m.groupsSkipped.Add(float64(n))
	}
}
