package config

import (
	"fmt"

	"github.com/marmos91/dittodrive/pkg/adapter"
	"github.com/marmos91/dittodrive/pkg/adapter/rest"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// CreateAdapters creates all enabled adapters from the configuration.
//
// httpMetrics is optional (nil = no metrics).
func CreateAdapters(cfg *Config, httpMetrics metrics.HTTPMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	if cfg.API.Enabled {
		adapters = append(adapters, rest.New(cfg.API, httpMetrics))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
