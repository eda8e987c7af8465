package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "orchestrator",
		Name:      "scans_started_total",
		Help:      "Count of scan jobs accepted.",
	})

	scansFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "orchestrator",
		Name:      "scans_finished_total",
		Help:      "Count of scan jobs reaching a terminal status.",
	}, []string{"status"})

	scanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "keyinsight7000",
		Subsystem: "orchestrator",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of scan jobs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	}, []string{"status"})

	blockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "keyinsight7000",
		Subsystem: "orchestrator",
		Name:      "block_duration_seconds",
		Help:      "Duration of processing a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	signaturesExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "orchestrator",
		Name:      "signatures_extracted_total",
		Help:      "Count of signatures extracted by address type.",
	}, []string{"address_type"})

	keysRecoveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "orchestrator",
		Name:      "keys_recovered_total",
		Help:      "Count of private keys produced by collision recovery.",
	}, []string{"validation_status"})
)

// Orchestrator records metrics for scan job execution.
type Orchestrator struct{}

// NewOrchestrator returns an Orchestrator metrics recorder.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

// ObserveScanStarted records a scan job being accepted.
func (m Orchestrator) ObserveScanStarted() {
	scansStartedTotal.Inc()
}

// ObserveScanFinished records a scan job reaching a terminal status.
func (m Orchestrator) ObserveScanFinished(status string, started time.Time) {
	scansFinishedTotal.WithLabelValues(status).Inc()
	scanDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// ObserveBlock records the processing of one block.
func (m Orchestrator) ObserveBlock(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	blockDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// ObserveSignature records one extracted signature.
func (m Orchestrator) ObserveSignature(addressType string) {
	signaturesExtractedTotal.WithLabelValues(addressType).Inc()
}

// ObserveRecoveredKey records one emitted recovery result.
func (m Orchestrator) ObserveRecoveredKey(validationStatus string) {
	keysRecoveredTotal.WithLabelValues(validationStatus).Inc()
}
