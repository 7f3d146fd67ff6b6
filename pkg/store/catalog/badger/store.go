package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// BadgerCatalogStore implements catalog.Store on top of BadgerDB.
//
// Key Features:
//   - Persistent storage with crash recovery (WAL-based)
//   - Serializable transactions: View and Update map onto db.View and
//     db.Update, so the all-or-nothing contract comes from badger itself
//   - Prefix indexes for folder children, folder contents and tag membership
//
// Concurrency:
// Badger detects write-write conflicts at commit. Update retries the whole
// callback up to MaxConflictRetries times before reporting an ErrConflict
// StoreError, so callbacks must derive every write from what they read in
// the same transaction.
type BadgerCatalogStore struct {
	db         *badger.DB
	maxRetries int
}

// MaxConflictRetries is the default number of attempts Update makes when
// badger reports a transaction conflict.
const MaxConflictRetries = 5

// BadgerCatalogStoreConfig contains configuration for creating a BadgerDB
// catalog store.
type BadgerCatalogStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files
	DBPath string `mapstructure:"db_path" validate:"required"`

	// InMemory runs badger without touching disk (tests)
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// ConflictRetries overrides MaxConflictRetries when positive
	ConflictRetries int `mapstructure:"conflict_retries"`
}

// NewBadgerCatalogStore opens (or creates) a catalog database.
func NewBadgerCatalogStore(ctx context.Context, config BadgerCatalogStoreConfig) (*BadgerCatalogStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(config.DBPath)
	}

	// Catalog rows are small JSON documents read far more often than written.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	retries := config.ConflictRetries
	if retries <= 0 {
		retries = MaxConflictRetries
	}

	logger.Debug("Opened badger catalog at %s (in_memory=%v)", config.DBPath, config.InMemory)
	return &BadgerCatalogStore{db: db, maxRetries: retries}, nil
}

func (s *BadgerCatalogStore) View(ctx context.Context, fn func(tx catalog.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

func (s *BadgerCatalogStore) Update(ctx context.Context, fn func(tx catalog.Tx) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTx{txn: txn, writable: true})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt >= s.maxRetries {
			return &catalog.StoreError{
				Code:    catalog.ErrConflict,
				Message: "transaction conflict, retries exhausted",
			}
		}
		logger.Debug("Catalog transaction conflict, retrying (attempt %d/%d)", attempt, s.maxRetries)
	}
}

// Healthcheck verifies the database accepts read transactions.
func (s *BadgerCatalogStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return &catalog.StoreError{Code: catalog.ErrIOError, Message: "catalog database is closed"}
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Close flushes pending writes and closes the database.
func (s *BadgerCatalogStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
