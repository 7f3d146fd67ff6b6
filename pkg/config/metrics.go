package config

import (
	"github.com/marmos91/dittodrive/pkg/metrics"
	contentS3 "github.com/marmos91/dittodrive/pkg/store/content/s3"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// The collectors below are never nil except S3, which the S3 store
	// replaces with its own no-op.
	Drive metrics.DriveMetrics
	HTTP  metrics.HTTPMetrics
	GC    metrics.GCMetrics
	S3    contentS3.S3Metrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// When metrics are enabled the global Prometheus registry is initialized
// first, so every constructor below returns a Prometheus-backed
// implementation; otherwise they return no-ops.
func InitializeMetrics(cfg *Config) *MetricsResult {
	result := &MetricsResult{}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		result.Server = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
	}

	result.Drive = metrics.NewDriveMetrics()
	result.HTTP = metrics.NewHTTPMetrics()
	result.GC = metrics.NewGCMetrics()
	result.S3 = metrics.NewS3Metrics()
	return result
}
