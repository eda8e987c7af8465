// Package metrics exposes Prometheus instrumentation for the scanner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "source_pool",
		Name:      "requests_total",
		Help:      "Count of upstream source request attempts.",
	}, []string{"source", "operation", "status"})

	sourceRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "keyinsight7000",
		Subsystem: "source_pool",
		Name:      "request_duration_seconds",
		Help:      "Duration of upstream source request attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source", "operation", "status"})

	sourceCooldownsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "source_pool",
		Name:      "cooldowns_total",
		Help:      "Count of cooldown windows applied to a source.",
	}, []string{"source"})

	sourceExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "source_pool",
		Name:      "exhausted_total",
		Help:      "Count of logical requests that exhausted every source.",
	})
)

// SourcePool records metrics for pooled source requests.
type SourcePool struct{}

// NewSourcePool returns a SourcePool metrics recorder.
func NewSourcePool() *SourcePool {
	return &SourcePool{}
}

// ObserveRequest records one request attempt against a source.
func (m SourcePool) ObserveRequest(source, operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	sourceRequestsTotal.WithLabelValues(source, operation, status).Inc()
	sourceRequestDuration.WithLabelValues(source, operation, status).
		Observe(time.Since(started).Seconds())
}

// ObserveCooldown records a source entering its backoff window.
func (m SourcePool) ObserveCooldown(source string) {
	sourceCooldownsTotal.WithLabelValues(source).Inc()
}

// ObserveExhausted records a logical request failing on every source.
func (m SourcePool) ObserveExhausted() {
	sourceExhaustedTotal.Inc()
}
