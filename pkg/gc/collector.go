// Package gc removes content blobs that no document references.
//
// Orphans appear when a document delete commits but the follow-up blob
// delete fails, when the process dies between writing an upload's bytes
// and committing its catalog entry, or when a catalog is restored from an
// older backup.
package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/marmos91/dittodrive/pkg/store/content"
)

// Collector periodically deletes orphaned content.
//
// An upload writes its bytes before committing the document, so a blob can
// briefly look orphaned. The collector only deletes blobs that have been
// orphaned for at least Config.GracePeriod, tracked across runs.
//
// Thread Safety: Safe for concurrent use; runs are serialized.
type Collector struct {
	catalog catalog.Store
	content content.GarbageCollectableStore
	config  Config
	metrics metrics.GCMetrics
	now     func() time.Time

	runMu     sync.Mutex
	firstSeen map[content.ContentID]time.Time

	stopOnce sync.Once
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether periodic collection runs (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often to run collection (default: 24h)
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`

	// GracePeriod is how long a blob must stay orphaned before deletion
	// (default: 1h). Zero deletes on first sight.
	GracePeriod time.Duration `mapstructure:"grace_period" yaml:"grace_period" validate:"gte=0"`

	// BatchSize is how many blobs to delete per DeleteBatch call (default: 1000)
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=0"`

	// DryRun logs what would be deleted without deleting
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// ApplyDefaults fills a zero Interval or BatchSize. A zero GracePeriod is
// kept as is.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = 24 * time.Hour
	}
	if c.BatchSize == 0 {
		c.BatchSize = 1000
	}
}

// DefaultConfig returns the default collector configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Interval:    24 * time.Hour,
		GracePeriod: time.Hour,
		BatchSize:   1000,
	}
}

// NewCollector creates a collector. It is not started; call Start.
//
// Returns an error if the content store cannot enumerate its content.
func NewCollector(store catalog.Store, contentStore content.ContentStore, config Config, m metrics.GCMetrics) (*Collector, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	gcStore, ok := contentStore.(content.GarbageCollectableStore)
	if !ok {
		return nil, fmt.Errorf("content store %T does not implement GarbageCollectableStore", contentStore)
	}
	if m == nil {
		m = metrics.NewGCMetrics()
	}

	config.ApplyDefaults()

	return &Collector{
		catalog:   store,
		content:   gcStore,
		config:    config,
		metrics:   m,
		now:       time.Now,
		firstSeen: make(map[content.ContentID]time.Time),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins background collection. It is a no-op when disabled.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	c.started = true
	logger.Info("Starting garbage collector: interval=%s grace=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.GracePeriod, c.config.BatchSize, c.config.DryRun)

	go c.worker()
}

// Stop stops the background worker and waits for an in-flight run to
// finish, or for ctx to expire. Safe to call multiple times.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}

	c.stopOnce.Do(func() {
		logger.Info("Stopping garbage collector...")
		close(c.stopCh)
	})

	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow performs one collection run and blocks until it completes.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			go func() {
				select {
				case <-c.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect performs one run:
//  1. list every stored ContentID
//  2. collect the ContentIDs referenced by documents
//  3. orphaned = stored - referenced
//  4. delete the orphans older than the grace period, in batches
//
// Listing content before reading the catalog means a blob written after
// step 1 is never considered.
func (c *Collector) collect(ctx context.Context) (stats *Stats, err error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	stats = &Stats{StartTime: c.now()}
	defer func() {
		stats.EndTime = c.now()
		c.metrics.RecordRun(int(stats.DeletedCount), int(stats.FailedCount), stats.Duration())
	}()

	existing, err := c.content.ListAllContent(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	referenced := make(map[content.ContentID]struct{})
	err = c.catalog.View(ctx, func(tx catalog.Tx) error {
		docs, err := tx.ListDocuments()
		if err != nil {
			return err
		}
		for _, d := range docs {
			if d.ContentID != "" {
				referenced[content.ContentID(d.ContentID)] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to get referenced content: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	now := c.now()
	seen := make(map[content.ContentID]time.Time, len(c.firstSeen))
	var due []content.ContentID
	for _, id := range existing {
		if _, ok := referenced[id]; ok {
			continue
		}
		stats.OrphanedCount++

		first, ok := c.firstSeen[id]
		if !ok {
			first = now
		}
		seen[id] = first
		if now.Sub(first) >= c.config.GracePeriod {
			due = append(due, id)
		}
	}
	// Forget ids that were adopted or disappeared since the last run.
	c.firstSeen = seen

	if len(due) == 0 {
		logger.Debug("GC: %d orphaned, none past the grace period", stats.OrphanedCount)
		return stats, nil
	}

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - would delete %d items", len(due))
		for i, id := range due {
			if i == 10 {
				logger.Info("  ... and %d more", len(due)-10)
				break
			}
			logger.Info("  - %s", id)
		}
		return stats, nil
	}

	for i := 0; i < len(due); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch := due[i:min(i+c.config.BatchSize, len(due))]
		failures, err := c.content.DeleteBatch(ctx, batch)
		if err != nil {
			logger.Warn("GC: batch delete failed: %v", err)
			stats.FailedCount += uint64(len(batch))
			continue
		}

		stats.DeletedCount += uint64(len(batch) - len(failures))
		stats.FailedCount += uint64(len(failures))
		for _, id := range batch {
			if _, failed := failures[id]; !failed {
				delete(c.firstSeen, id)
			}
		}
		for id, ferr := range failures {
			logger.Debug("GC: failed to delete %s: %v", id, ferr)
		}
	}

	logger.Info("GC: deleted %d items, %d failed", stats.DeletedCount, stats.FailedCount)
	return stats, nil
}

// Stats contains statistics from a collection run.
type Stats struct {
	StartTime       time.Time
	EndTime         time.Time
	ReferencedCount uint64 // ContentIDs referenced by documents
	ExistingCount   uint64 // ContentIDs in the content store
	OrphanedCount   uint64 // stored but unreferenced
	DeletedCount    uint64
	FailedCount     uint64
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the run.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
