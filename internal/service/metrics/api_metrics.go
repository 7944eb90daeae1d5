package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundinsight",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of ranking API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundinsight",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by ranking API endpoint",
		},
		[]string{"endpoint"},
	)
)
