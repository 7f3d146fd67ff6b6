package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
	catalogBadger "github.com/marmos91/dittodrive/pkg/store/catalog/badger"
	catalogMemory "github.com/marmos91/dittodrive/pkg/store/catalog/memory"
	"github.com/marmos91/dittodrive/pkg/store/content"
	contentFs "github.com/marmos91/dittodrive/pkg/store/content/fs"
	contentMemory "github.com/marmos91/dittodrive/pkg/store/content/memory"
	contentS3 "github.com/marmos91/dittodrive/pkg/store/content/s3"
	"github.com/mitchellh/mapstructure"
)

// CreateCatalogStore creates a catalog store based on configuration.
//
// Supported types:
//   - "memory": pkg/store/catalog/memory (ephemeral)
//   - "badger": pkg/store/catalog/badger (persistent)
func CreateCatalogStore(ctx context.Context, cfg *CatalogConfig) (catalog.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return catalogMemory.NewMemoryCatalogStore(), nil
	case "badger":
		return createBadgerCatalogStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown catalog store type: %q (supported: memory, badger)", cfg.Type)
	}
}

func createBadgerCatalogStore(ctx context.Context, options map[string]any) (catalog.Store, error) {
	var storeCfg catalogBadger.BadgerCatalogStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger catalog store config: %w", err)
	}

	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger catalog store: db_path is required")
	}

	store, err := catalogBadger.NewBadgerCatalogStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger catalog store: %w", err)
	}

	logger.Info("Badger catalog store opened at %s", storeCfg.DBPath)
	return store, nil
}

// CreateContentStore creates a content store based on configuration.
//
// Supported types:
//   - "memory": pkg/store/content/memory (ephemeral)
//   - "filesystem": pkg/store/content/fs (local directory)
//   - "s3": pkg/store/content/s3 (Amazon S3 or compatible storage)
//
// s3Metrics is optional and only used by the S3 store.
func CreateContentStore(ctx context.Context, cfg *ContentConfig, s3Metrics contentS3.S3Metrics) (content.GarbageCollectableStore, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return contentMemory.NewMemoryContentStore(), nil
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "s3":
		return createS3ContentStore(ctx, cfg.S3, s3Metrics)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.GarbageCollectableStore, error) {
	type FilesystemContentStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemContentStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSContentStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	return store, nil
}

func createS3ContentStore(ctx context.Context, options map[string]any, s3Metrics contentS3.S3Metrics) (content.GarbageCollectableStore, error) {
	type S3ContentStoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		ForcePathStyle  bool   `mapstructure:"force_path_style"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3ContentStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	client, err := contentS3.NewS3Client(ctx, contentS3.ClientConfig{
		Endpoint:        storeCfg.Endpoint,
		Region:          storeCfg.Region,
		AccessKeyID:     storeCfg.AccessKeyID,
		SecretAccessKey: storeCfg.SecretAccessKey,
		ForcePathStyle:  storeCfg.ForcePathStyle,
		MaxRetries:      storeCfg.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	store, err := contentS3.NewS3ContentStore(ctx, contentS3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
		Metrics:   s3Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// decodeOptions decodes a store options map, accepting string values for
// numbers, booleans and durations (environment overrides arrive as strings).
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}
