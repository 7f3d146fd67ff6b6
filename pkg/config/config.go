package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/adapter/rest"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/spf13/viper"
)

// Config represents the complete DittoDrive configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DITTODRIVE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type. The catalog
// and content sections hold one map per store type and only the map
// matching the selected type is decoded (see factories.go).
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`

	// API configures the REST adapter. Uses rest.RESTConfig directly.
	API rest.RESTConfig `mapstructure:"api" yaml:"api"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Catalog selects where folders, documents, tags and users are kept
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`

	// Content selects where uploaded bytes are kept
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`
	View   ViewConfig   `mapstructure:"view" yaml:"view"`
	Drive  DriveConfig  `mapstructure:"drive" yaml:"drive"`

	// GC configures the orphaned content collector
	GC gc.Config `mapstructure:"gc" yaml:"gc"`

	// Users seeds the user directory at startup
	Users []UserConfig `mapstructure:"users" yaml:"users" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
}

// CatalogConfig specifies catalog store configuration.
type CatalogConfig struct {
	// Type specifies which catalog implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
}

// ContentConfig specifies content store configuration.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: memory, filesystem, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory filesystem s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// UploadConfig bounds uploads and picks the thumbnail URL template.
type UploadConfig struct {
	drive.UploadLimits `mapstructure:",squash" yaml:",inline"`

	// ThumbnailTemplate is a fmt template receiving a short type label
	ThumbnailTemplate string `mapstructure:"thumbnail_template" yaml:"thumbnail_template"`
}

// ViewConfig controls the read model.
type ViewConfig struct {
	// Locale is the BCP 47 tag used to collate names (e.g. "en", "de", "sv")
	Locale string `mapstructure:"locale" yaml:"locale" validate:"required"`
}

// DriveConfig tunes the drive service.
type DriveConfig struct {
	// SimulatedLatency delays every operation (demo setups). 0 disables it.
	SimulatedLatency time.Duration `mapstructure:"simulated_latency" yaml:"simulated_latency" validate:"min=0"`
}

// UserConfig is one seeded directory entry.
type UserConfig struct {
	ID     string `mapstructure:"id" yaml:"id" validate:"required"`
	Name   string `mapstructure:"name" yaml:"name"`
	Email  string `mapstructure:"email" yaml:"email" validate:"omitempty,email"`
	Avatar string `mapstructure:"avatar" yaml:"avatar,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTODRIVE_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath searches the default location; a missing file there
// is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// envKeys lists the scalar settings overridable from the environment.
// viper's AutomaticEnv only resolves keys it already knows, so keys absent
// from the config file must be bound explicitly.
var envKeys = []string{
	"logging.level", "logging.format", "logging.output",
	"server.shutdown_timeout",
	"api.enabled", "api.port", "api.read_timeout", "api.write_timeout",
	"api.idle_timeout", "api.shutdown_timeout",
	"api.rate_limit.requests_per_second", "api.rate_limit.burst",
	"metrics.enabled", "metrics.port",
	"catalog.type", "catalog.badger.db_path",
	"content.type", "content.filesystem.path",
	"content.s3.bucket", "content.s3.region", "content.s3.endpoint", "content.s3.key_prefix",
	"content.s3.access_key_id", "content.s3.secret_access_key",
	"upload.max_size", "upload.thumbnail_template",
	"view.locale",
	"drive.simulated_latency",
	"gc.enabled", "gc.interval", "gc.grace_period", "gc.batch_size", "gc.dry_run",
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTODRIVE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTODRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittodrive/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// An explicit path that does not exist is treated like a missing
		// default file.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittodrive")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittodrive")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
