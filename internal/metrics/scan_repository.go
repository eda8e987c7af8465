package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repositoryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyinsight7000",
		Subsystem: "scan_repository",
		Name:      "operations_total",
		Help:      "Count of scan repository operations.",
	}, []string{"operation", "status"})

	repositoryOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "keyinsight7000",
		Subsystem: "scan_repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of scan repository operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// ScanRepository records metrics for scan store operations.
type ScanRepository struct{}

// NewScanRepository returns a ScanRepository metrics recorder.
func NewScanRepository() *ScanRepository {
	return &ScanRepository{}
}

// Observe records one repository operation.
func (m ScanRepository) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	repositoryOperationsTotal.WithLabelValues(operation, status).Inc()
	repositoryOperationDuration.WithLabelValues(operation, status).
		Observe(time.Since(started).Seconds())
}
