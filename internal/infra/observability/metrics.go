package observability

import (
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	metricUpstreamRequests = "crm_upstream_requests_total"
	metricUpstreamFailures = "crm_upstream_failures_total"
	metricPagesFetched     = "crm_pages_fetched_total"
	metricRecordsFetched   = "crm_records_fetched_total"
)

// Metrics holds all Prometheus metrics for the dashboard service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	pagesFetched     *prometheus.CounterVec
	recordsFetched   *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_request_duration_seconds",
				Help:    "Duration of dashboard operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_fetch_errors_total",
				Help: "Total failed resource fetches by resource.",
			},
			[]string{"resource"},
		),
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricUpstreamRequests,
				Help: "Total HTTP requests sent to the CRM API.",
			},
			[]string{"method", "status"},
		),
		upstreamFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricUpstreamFailures,
				Help: "Total CRM requests that ended in a transport error.",
			},
			[]string{"reason"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_upstream_request_duration_seconds",
				Help:    "Latency of CRM API requests.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"method"},
		),
		pagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPagesFetched,
				Help: "Total listing pages drained, by pagination strategy.",
			},
			[]string{"strategy"},
		),
		recordsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricRecordsFetched,
				Help: "Total records fetched, by resource.",
			},
			[]string{"resource"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_requests_total",
				Help: "Total dashboard operations processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the failed fetch counter.
func (m *Metrics) IncrExternalError(resource string) {
	m.externalErrors.WithLabelValues(resource).Inc()
}

// RecordUpstreamRequest records one CRM request outcome. status is the HTTP
// status code as text, or a short reason when no response was received.
func (m *Metrics) RecordUpstreamRequest(method, status string, d time.Duration) {
	m.upstreamRequests.WithLabelValues(method, status).Inc()
	m.upstreamDuration.WithLabelValues(method).Observe(d.Seconds())
}

// IncrUpstreamFailure counts a transport error by reason.
func (m *Metrics) IncrUpstreamFailure(reason string) {
	m.upstreamFailures.WithLabelValues(reason).Inc()
}

// IncrPages counts one drained listing page.
func (m *Metrics) IncrPages(strategy string) {
	m.pagesFetched.WithLabelValues(strategy).Inc()
}

// AddRecords counts fetched records for a resource.
func (m *Metrics) AddRecords(resource string, n int) {
	m.recordsFetched.WithLabelValues(resource).Add(float64(n))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetIngestionSnapshot returns cumulative ingestion counters suitable for the
// GET /v1/metrics/ingestion endpoint.
func (m *Metrics) GetIngestionSnapshot() *domain.IngestionMetrics {
	totals := m.counterTotals()

	requests := totals[metricUpstreamRequests]
	failures := totals[metricUpstreamFailures]
	failureRate := float64(0)
	if requests > 0 {
		failureRate = failures / requests
	}

	return &domain.IngestionMetrics{
		UpstreamRequests: int64(requests),
		UpstreamFailures: int64(failures),
		FailureRate:      failureRate,
		PagesFetched:     int64(totals[metricPagesFetched]),
		RecordsFetched:   int64(totals[metricRecordsFetched]),
		Period:           "all_time",
	}
}

// counterTotals sums every counter family in the registry across its labels.
func (m *Metrics) counterTotals() map[string]float64 {
	totals := make(map[string]float64)

	families, err := m.Registry.Gather()
	if err != nil {
		return totals
	}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range mf.GetMetric() {
			totals[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	return totals
}
