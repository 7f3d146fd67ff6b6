package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/marmos91/dittodrive/pkg/store/content"
)

// Runtime holds the stores and services built from a configuration.
type Runtime struct {
	Catalog   catalog.Store
	Content   content.GarbageCollectableStore
	Drive     *drive.Drive
	Collector *gc.Collector // nil when gc is disabled
}

// InitializeRuntime creates the stores, the drive service and the garbage
// collector, then seeds the user directory.
//
// This function orchestrates the complete initialization process:
//  1. Creates the catalog store from cfg.Catalog
//  2. Creates the content store from cfg.Content
//  3. Builds the drive service with upload, view and drive settings
//  4. Registers cfg.Users
//  5. Creates the collector when cfg.GC.Enabled
//
// On failure every store opened so far is closed.
func InitializeRuntime(ctx context.Context, cfg *Config, m *MetricsResult) (_ *Runtime, err error) {
	if cfg == nil {
		return nil, errors.New("configuration is nil")
	}
	if m == nil {
		m = &MetricsResult{}
	}

	rt := &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	logger.Debug("Creating %s catalog store", cfg.Catalog.Type)
	if rt.Catalog, err = CreateCatalogStore(ctx, &cfg.Catalog); err != nil {
		return nil, err
	}

	logger.Debug("Creating %s content store", cfg.Content.Type)
	if rt.Content, err = CreateContentStore(ctx, &cfg.Content, m.S3); err != nil {
		return nil, err
	}

	rt.Drive, err = drive.New(rt.Catalog, drive.Options{
		Content:           rt.Content,
		Limits:            cfg.Upload.UploadLimits,
		ThumbnailTemplate: cfg.Upload.ThumbnailTemplate,
		Locale:            cfg.View.Locale,
		SimulatedLatency:  cfg.Drive.SimulatedLatency,
		Metrics:           m.Drive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create drive: %w", err)
	}

	users := make([]*catalog.User, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		users = append(users, &catalog.User{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar})
	}
	if err = rt.Drive.RegisterUsers(ctx, users...); err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	logger.Debug("Seeded %d user(s)", len(users))

	if cfg.GC.Enabled {
		if rt.Collector, err = gc.NewCollector(rt.Catalog, rt.Content, cfg.GC, m.GC); err != nil {
			return nil, fmt.Errorf("failed to create garbage collector: %w", err)
		}
	}

	return rt, nil
}

// Close releases the stores.
func (r *Runtime) Close() error {
	if r == nil || r.Catalog == nil {
		return nil
	}
	if err := r.Catalog.Close(); err != nil {
		return fmt.Errorf("failed to close catalog store: %w", err)
	}
	return nil
}
