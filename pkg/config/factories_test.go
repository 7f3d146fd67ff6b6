package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateContentStore_Memory(t *testing.T) {
	cfg := &ContentConfig{Type: "memory"}

	store, err := CreateContentStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create memory content store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateContentStore_Filesystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "content")

	cfg := &ContentConfig{
		Type: "filesystem",
		Filesystem: map[string]any{
			"path": tmpDir,
		},
	}

	store, err := CreateContentStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create filesystem content store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestCreateContentStore_FilesystemMissingPath(t *testing.T) {
	cfg := &ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{},
	}

	_, err := CreateContentStore(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error with missing path, got nil")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCreateContentStore_S3MissingBucket(t *testing.T) {
	cfg := &ContentConfig{
		Type: "s3",
		S3:   map[string]any{"region": "us-east-1"},
	}

	_, err := CreateContentStore(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error with missing bucket, got nil")
	}
	if !strings.Contains(err.Error(), "bucket is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCreateContentStore_UnknownType(t *testing.T) {
	cfg := &ContentConfig{Type: "unknown"}

	if _, err := CreateContentStore(context.Background(), cfg, nil); err == nil {
		t.Fatal("Expected error with unknown type, got nil")
	}
}

func TestCreateCatalogStore_Memory(t *testing.T) {
	cfg := &CatalogConfig{Type: "memory"}

	store, err := CreateCatalogStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create memory catalog store: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	_ = store.Close()
}

func TestCreateCatalogStore_Badger(t *testing.T) {
	cfg := &CatalogConfig{
		Type: "badger",
		Badger: map[string]any{
			"db_path": filepath.Join(t.TempDir(), "catalog"),
		},
	}

	store, err := CreateCatalogStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger catalog store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestCreateCatalogStore_BadgerMissingPath(t *testing.T) {
	cfg := &CatalogConfig{Type: "badger", Badger: map[string]any{}}

	if _, err := CreateCatalogStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error with missing db_path, got nil")
	}
}

func TestCreateCatalogStore_UnknownType(t *testing.T) {
	cfg := &CatalogConfig{Type: "postgres"}

	if _, err := CreateCatalogStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error with unknown type, got nil")
	}
}
