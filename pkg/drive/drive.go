// Package drive implements the document manager operations: the folder
// tree, document uploads and updates, tagging, per-resource access control
// and the browse read model.
//
// Every operation runs in a single catalog transaction. All checks happen
// before the first write, so a failed operation leaves the catalog
// unchanged.
package drive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/marmos91/dittodrive/pkg/store/content"
	"golang.org/x/text/language"
)

// IDGenerator returns a fresh unique identifier on every call.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// NewUUID generates a random (version 4) UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// DefaultLocale is the collation locale used when none is configured.
const DefaultLocale = "en"

// Options configures a Drive. The zero value is usable: every field has a
// default.
type Options struct {
	// Content stores uploaded bytes. When nil, uploads record metadata
	// only and OpenContent fails with ErrNotFound.
	Content content.ContentStore

	// IDs generates entity identifiers. Defaults to NewUUID.
	IDs IDGenerator

	// Clock supplies timestamps. Defaults to time.Now in UTC.
	Clock Clock

	// Limits bounds uploads. Zero fields fall back to DefaultUploadLimits.
	Limits UploadLimits

	// ThumbnailTemplate is a fmt template receiving the thumbnail label
	// (PDF, DOCX, IMG, ...). Defaults to DefaultThumbnailTemplate.
	ThumbnailTemplate string

	// Locale is the BCP 47 tag used to collate names. Defaults to "en".
	Locale string

	// SimulatedLatency delays every operation. Zero disables it.
	SimulatedLatency time.Duration

	// Metrics records operation outcomes. Defaults to metrics.NewDriveMetrics().
	Metrics metrics.DriveMetrics
}

// Drive is the document manager service. It is safe for concurrent use.
type Drive struct {
	store      catalog.Store
	content    content.ContentStore
	newID      IDGenerator
	now        Clock
	limits     UploadLimits
	thumbnails string
	locale     language.Tag
	latency    time.Duration
	metrics    metrics.DriveMetrics
}

// New creates a Drive on top of a catalog store.
func New(store catalog.Store, opts Options) (*Drive, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}

	localeName := opts.Locale
	if localeName == "" {
		localeName = DefaultLocale
	}
	locale, err := language.Parse(localeName)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", localeName, err)
	}

	if opts.SimulatedLatency < 0 {
		return nil, fmt.Errorf("simulated latency must not be negative, got %v", opts.SimulatedLatency)
	}

	d := &Drive{
		store:      store,
		content:    opts.Content,
		newID:      opts.IDs,
		now:        opts.Clock,
		limits:     opts.Limits.withDefaults(),
		thumbnails: opts.ThumbnailTemplate,
		locale:     locale,
		latency:    opts.SimulatedLatency,
		metrics:    opts.Metrics,
	}
	if d.newID == nil {
		d.newID = NewUUID
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	if d.thumbnails == "" {
		d.thumbnails = DefaultThumbnailTemplate
	}
	if d.metrics == nil {
		d.metrics = metrics.NewDriveMetrics()
	}

	logger.Debug("Drive initialized: locale=%s max_upload=%d allowed_types=%d latency=%v",
		d.locale, d.limits.MaxSize, len(d.limits.AllowedTypes), d.latency)

	return d, nil
}

// Limits returns the effective upload limits.
func (d *Drive) Limits() UploadLimits {
	return d.limits.clone()
}

// Healthcheck verifies the catalog and, when configured, the content store.
func (d *Drive) Healthcheck(ctx context.Context) error {
	if err := d.store.Healthcheck(ctx); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if d.content != nil {
		if _, err := d.content.GetStorageStats(ctx); err != nil {
			return fmt.Errorf("content: %w", err)
		}
	}
	return nil
}

// observe is deferred by every public operation to record its outcome.
func (d *Drive) observe(op string, start time.Time, err *error) {
	d.metrics.RecordOperation(op, time.Since(start), *err)
	if *err != nil {
		logger.Debug("drive %s failed: %v", op, *err)
	}
}

// delay waits for the simulated latency, returning early on cancellation.
func (d *Drive) delay(ctx context.Context) error {
	if d.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func checkVersion(want Optional[uint64], have uint64, id string) error {
	if v, ok := want.Get(); ok && v != have {
		return &catalog.StoreError{Code: catalog.ErrConflict, Message: "version conflict", ID: id}
	}
	return nil
}
