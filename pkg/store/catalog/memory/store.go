package memory

import (
	"context"
	"sync"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// MemoryCatalogStore implements catalog.Store using in-memory maps.
//
// It is suitable for tests, demos and ephemeral deployments; nothing
// survives a restart.
//
// Thread Safety:
// A single read-write mutex guards the store. View holds the read lock for
// the duration of fn; Update holds the write lock, so write transactions are
// fully serialized and never conflict.
//
// Atomicity:
// Update stages every change in a per-transaction overlay (see table) and
// folds it into the committed maps only when fn returns nil.
type MemoryCatalogStore struct {
	mu sync.RWMutex

	folders   *table[catalog.Folder]
	documents *table[catalog.Document]
	tags      *table[catalog.Tag]
	users     *table[catalog.User]

	closed bool
}

// NewMemoryCatalogStore creates an empty in-memory catalog.
func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{
		folders:   newTable((*catalog.Folder).Clone),
		documents: newTable((*catalog.Document).Clone),
		tags:      newTable((*catalog.Tag).Clone),
		users:     newTable((*catalog.User).Clone),
	}
}

func (s *MemoryCatalogStore) View(ctx context.Context, fn func(tx catalog.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errClosed
	}
	return fn(s.begin(false))
}

func (s *MemoryCatalogStore) Update(ctx context.Context, fn func(tx catalog.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	tx := s.begin(true)
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.folders.commit()
	tx.documents.commit()
	tx.tags.commit()
	tx.users.commit()
	return nil
}

// Healthcheck succeeds unless the context is done or the store is closed.
func (s *MemoryCatalogStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

func (s *MemoryCatalogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryCatalogStore) begin(writable bool) *memoryTx {
	return &memoryTx{
		writable:  writable,
		folders:   s.folders.begin(),
		documents: s.documents.begin(),
		tags:      s.tags.begin(),
		users:     s.users.begin(),
	}
}

var errClosed = &catalog.StoreError{Code: catalog.ErrIOError, Message: "catalog store is closed"}
