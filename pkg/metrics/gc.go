package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GCMetrics records content garbage collection runs.
type GCMetrics interface {
	RecordRun(deleted, failed int, duration time.Duration)
}

type gcMetrics struct {
	runsTotal    prometheus.Counter
	deletedTotal prometheus.Counter
	failedTotal  prometheus.Counter
	runDuration  prometheus.Histogram
}

// NewGCMetrics returns Prometheus-backed GC metrics, or a no-op
// implementation when metrics are disabled.
func NewGCMetrics() GCMetrics {
	if !IsEnabled() {
		return noopGCMetrics{}
	}

	reg := GetRegistry()

	return &gcMetrics{
		runsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dittodrive_gc_runs_total",
			Help: "Total number of content garbage collection runs",
		}),
		deletedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dittodrive_gc_deleted_total",
			Help: "Total number of orphaned blobs deleted",
		}),
		failedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dittodrive_gc_failed_total",
			Help: "Total number of orphaned blobs that could not be deleted",
		}),
		runDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "dittodrive_gc_run_duration_seconds",
			Help:    "Duration of garbage collection runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *gcMetrics) RecordRun(deleted, failed int, duration time.Duration) {
	m.runsTotal.Inc()
	m.deletedTotal.Add(float64(deleted))
	m.failedTotal.Add(float64(failed))
	m.runDuration.Observe(duration.Seconds())
}

type noopGCMetrics struct{}

func (noopGCMetrics) RecordRun(int, int, time.Duration) {}
