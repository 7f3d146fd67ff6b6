package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "info"

content:
  type: "filesystem"
  filesystem:
    path: "/var/lib/dittodrive/content"

users:
  - id: "user-alice"
    name: "Alice"
    email: "alice@example.com"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if !cfg.API.Enabled || cfg.API.Port != 8080 {
		t.Errorf("Expected API enabled on 8080, got enabled=%v port=%d", cfg.API.Enabled, cfg.API.Port)
	}
	if cfg.Content.Filesystem["path"] != "/var/lib/dittodrive/content" {
		t.Errorf("Expected configured content path, got %v", cfg.Content.Filesystem["path"])
	}
	if cfg.Catalog.Type != "memory" {
		t.Errorf("Expected default catalog type 'memory', got %q", cfg.Catalog.Type)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].ID != "user-alice" {
		t.Errorf("Expected configured users to replace the demo user, got %+v", cfg.Users)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Explicit path so the user's ~/.config/dittodrive is never read
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Content.Type != "memory" {
		t.Errorf("Expected default content type 'memory', got %q", cfg.Content.Type)
	}
	if !cfg.GC.Enabled {
		t.Error("Expected gc enabled when unconfigured")
	}
	if cfg.GC.GracePeriod != time.Hour {
		t.Errorf("Expected default grace period 1h, got %v", cfg.GC.GracePeriod)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("Expected the demo user, got %d users", len(cfg.Users))
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[api]
enabled = true
port = 9000

[api.rate_limit]
requests_per_second = 20
burst = 40

[upload]
max_size = 1048576
allowed_types = ["application/pdf", "text/plain"]

[view]
locale = "sv"

[[users]]
id = "user-1"
email = "one@example.com"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" || cfg.Logging.Format != "json" {
		t.Errorf("Expected WARN/json, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.API.Port)
	}
	if cfg.API.RateLimit.RequestsPerSecond != 20 || cfg.API.RateLimit.Burst != 40 {
		t.Errorf("Unexpected rate limit %+v", cfg.API.RateLimit)
	}
	if cfg.Upload.MaxSize != 1048576 {
		t.Errorf("Expected max_size 1048576, got %d", cfg.Upload.MaxSize)
	}
	if len(cfg.Upload.AllowedTypes) != 2 {
		t.Errorf("Expected 2 allowed types, got %v", cfg.Upload.AllowedTypes)
	}
	if cfg.View.Locale != "sv" {
		t.Errorf("Expected locale 'sv', got %q", cfg.View.Locale)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: INFO
`)

	t.Setenv("DITTODRIVE_LOGGING_LEVEL", "DEBUG")
	t.Setenv("DITTODRIVE_API_PORT", "9443")
	t.Setenv("DITTODRIVE_DRIVE_SIMULATED_LATENCY", "250ms")
	t.Setenv("DITTODRIVE_CATALOG_TYPE", "badger")
	t.Setenv("DITTODRIVE_CATALOG_BADGER_DB_PATH", "/data/catalog")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9443 {
		t.Errorf("Expected env port 9443, got %d", cfg.API.Port)
	}
	if cfg.Drive.SimulatedLatency != 250*time.Millisecond {
		t.Errorf("Expected 250ms latency, got %v", cfg.Drive.SimulatedLatency)
	}
	if cfg.Catalog.Type != "badger" {
		t.Errorf("Expected badger catalog, got %q", cfg.Catalog.Type)
	}
	if cfg.Catalog.Badger["db_path"] != "/data/catalog" {
		t.Errorf("Expected env db_path, got %v", cfg.Catalog.Badger["db_path"])
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
content:
  type: "tape"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown content type")
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := GetConfigDir(); got != filepath.Join(dir, "dittodrive") {
		t.Errorf("Expected %s, got %s", filepath.Join(dir, "dittodrive"), got)
	}
	if got := GetDefaultConfigPath(); got != filepath.Join(dir, "dittodrive", "config.yaml") {
		t.Errorf("Unexpected default path %s", got)
	}
	if ConfigExists() {
		t.Error("Expected no config in a fresh directory")
	}
}
