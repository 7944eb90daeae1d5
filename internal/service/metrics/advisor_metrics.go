package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AdvisorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fundinsight",
			Subsystem: "advisor",
			Name:      "latency_seconds",
			Help:      "Latency of AI advisor calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	AdvisorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fundinsight",
			Subsystem: "advisor",
			Name:      "errors_total",
			Help:      "Errors by AI advisor provider",
		},
		[]string{"provider"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AdvisorLatency, AdvisorErrors, APILatency, APIErrors)
	})
}
