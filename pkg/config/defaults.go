package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/adapter/rest"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/gc"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store-specific defaults are handled by the store constructors
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
	applyCatalogDefaults(&cfg.Catalog)
	applyContentDefaults(&cfg.Content)
	applyUploadDefaults(&cfg.Upload)

	if cfg.View.Locale == "" {
		cfg.View.Locale = drive.DefaultLocale
	}

	applyGCDefaults(&cfg.GC)

	// Seed a demo user so a fresh install is usable
	if len(cfg.Users) == 0 {
		cfg.Users = defaultUsers()
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyAPIDefaults enables the API when it looks unconfigured (port 0), so
// a config without an api section still serves. An explicit enabled:
// false with a port is kept.
func applyAPIDefaults(cfg *rest.RESTConfig) {
	if !cfg.Enabled && cfg.Port == 0 {
		cfg.Enabled = true
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyCatalogDefaults(cfg *CatalogConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(defaultDataDir(), "catalog")
	}
}

func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(defaultDataDir(), "content")
	}
}

func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = drive.DefaultMaxUploadSize
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = slices.Clone(drive.DefaultAllowedTypes)
	}
	if cfg.ThumbnailTemplate == "" {
		cfg.ThumbnailTemplate = drive.DefaultThumbnailTemplate
	}
}

// applyGCDefaults enables collection when the section looks unconfigured
// (zero interval), mirroring applyAPIDefaults.
func applyGCDefaults(cfg *gc.Config) {
	if cfg.Interval == 0 {
		cfg.Enabled = true
		if cfg.GracePeriod == 0 {
			cfg.GracePeriod = gc.DefaultConfig().GracePeriod
		}
	}
	cfg.ApplyDefaults()
}

func defaultDataDir() string {
	return filepath.Join("/tmp", "dittodrive")
}

func defaultUsers() []UserConfig {
	return []UserConfig{
		{ID: "user-1", Name: "Demo User", Email: "demo@example.com"},
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		API: rest.RESTConfig{Enabled: true},
		GC:  gc.DefaultConfig(),
	}
	ApplyDefaults(cfg)
	return cfg
}
