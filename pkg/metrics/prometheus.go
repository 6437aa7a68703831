// Package metrics provides Prometheus metrics for the ranking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the engine's Prometheus metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Pass metrics: one observation per stage per run.
	passDuration *prometheus.HistogramVec

	// Ranking outcomes.
	playersRanked  *prometheus.GaugeVec
	countriesRated *prometheus.GaugeVec

	// Assessment outcomes.
	assessmentChecked    *prometheus.CounterVec
	assessmentMismatches *prometheus.CounterVec

	// Quota outcomes.
	quotaAllocated   *prometheus.GaugeVec
	quotaUnallocated *prometheus.GaugeVec

	// HTTP surface.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager backed by a private registry, so the engine never
// collides with default Go collectors.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager on a fresh registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mers",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.passDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pass_duration_seconds",
		Help:      "Duration of engine passes by stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.playersRanked = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_ranked",
		Help:      "Number of ranked players after the last pass",
	}, []string{"ruleset"})

	m.countriesRated = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "countries_ranked",
		Help:      "Number of ordered countries after the last pass",
	}, []string{"ruleset"})

	m.assessmentChecked = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessment_rows_total",
		Help:      "Rows cross-checked against official reference data",
	}, []string{"kind"})

	m.assessmentMismatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assessment_mismatches_total",
		Help:      "Cross-check rows that disagreed beyond tolerance",
	}, []string{"kind"})

	m.quotaAllocated = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_seats_allocated",
		Help:      "Seats placed by the last quota run",
	}, []string{"ruleset"})

	m.quotaUnallocated = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quota_seats_unallocated",
		Help:      "Seats the last quota run could not place",
	}, []string{"ruleset"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by endpoint, method and status",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// GetRegistry exposes the registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return globalManager.registry
}

// ObservePassDuration records one engine stage duration in seconds.
func ObservePassDuration(stage string, seconds float64) {
	globalManager.passDuration.WithLabelValues(stage).Observe(seconds)
}

// SetPlayersRanked records the ranked player count for a ruleset.
func SetPlayersRanked(ruleset string, n int) {
	globalManager.playersRanked.WithLabelValues(ruleset).Set(float64(n))
}

// SetCountriesRanked records the ordered country count for a ruleset.
func SetCountriesRanked(ruleset string, n int) {
	globalManager.countriesRated.WithLabelValues(ruleset).Set(float64(n))
}

// RecordAssessment adds an assessment summary for a check kind.
func RecordAssessment(kind string, total, bad int) {
	globalManager.assessmentChecked.WithLabelValues(kind).Add(float64(total))
	globalManager.assessmentMismatches.WithLabelValues(kind).Add(float64(bad))
}

// SetQuotaSeats records the outcome of a quota run.
func SetQuotaSeats(ruleset string, allocated, unallocated int) {
	globalManager.quotaAllocated.WithLabelValues(ruleset).Set(float64(allocated))
	globalManager.quotaUnallocated.WithLabelValues(ruleset).Set(float64(unallocated))
}

// RecordHTTPRequest counts one request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}
