package metrics

import (
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DriveMetrics records drive service activity.
type DriveMetrics interface {
	// RecordOperation records one drive operation ("create_folder",
	// "upload", ...) with its duration and outcome. The status label is
	// derived from the error's catalog code.
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordUploadBytes records the size of an accepted upload.
	RecordUploadBytes(bytes int64)
}

type driveMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	uploadBytes       prometheus.Histogram
}

// NewDriveMetrics returns Prometheus-backed drive metrics, or a no-op
// implementation when metrics are disabled.
func NewDriveMetrics() DriveMetrics {
	if !IsEnabled() {
		return noopDriveMetrics{}
	}
	return newDriveMetrics(GetRegistry())
}

func newDriveMetrics(reg prometheus.Registerer) *driveMetrics {
	return &driveMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_operations_total",
				Help: "Total number of drive operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittodrive_operation_duration_seconds",
				Help: "Duration of drive operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					2.5,    // 2.5s
				},
			},
			[]string{"operation"},
		),
		uploadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittodrive_upload_bytes",
				Help:    "Size of accepted uploads in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
			},
		),
	}
}

func (m *driveMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(operation, StatusLabel(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *driveMetrics) RecordUploadBytes(bytes int64) {
	m.uploadBytes.Observe(float64(bytes))
}

// StatusLabel maps an operation result to a low-cardinality label value.
func StatusLabel(err error) string {
	if err == nil {
		return "success"
	}
	if code, ok := catalog.CodeOf(err); ok {
		return strings.ToLower(strings.TrimSuffix(code.String(), "Error"))
	}
	return "error"
}

type noopDriveMetrics struct{}

func (noopDriveMetrics) RecordOperation(string, time.Duration, error) {}
func (noopDriveMetrics) RecordUploadBytes(int64)                     {}
