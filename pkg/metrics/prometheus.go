package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	fetchFailures    *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cohortSize       *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundinsight_provider_requests_total",
				Help: "Total number of upstream provider requests",
			},
			[]string{"endpoint", "status"},
		),
		fetchFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundinsight_fetch_failures_total",
				Help: "Total number of per-fund fetch failures by kind",
			},
			[]string{"kind"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundinsight_cache_results_total",
				Help: "Snapshot cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		cohortSize: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fundinsight_cohort_size",
				Help: "Number of funds scored in the last ranking run",
			},
			[]string{"sector"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundinsight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProviderRequest records one upstream request and its outcome.
func (r *Recorder) RecordProviderRequest(endpoint, status string) {
	r.providerRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordFetchFailure records a per-fund fetch failure by kind.
func (r *Recorder) RecordFetchFailure(kind string) {
	r.fetchFailures.WithLabelValues(kind).Inc()
}

// RecordCacheResult records a snapshot cache hit or miss.
func (r *Recorder) RecordCacheResult(outcome string) {
	r.cacheHits.WithLabelValues(outcome).Inc()
}

// RecordCohortSize records how many funds entered scoring for a sector.
func (r *Recorder) RecordCohortSize(sector string, n int) {
	r.cohortSize.WithLabelValues(sector).Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
