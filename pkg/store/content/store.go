package content

import (
	"context"
	"errors"
	"io"
)

// ContentID identifies a stored blob. Documents use their own id as the
// ContentID of their uploaded bytes.
type ContentID string

var (
	// ErrContentNotFound indicates the requested content does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidContentID indicates an id that the backend cannot map to a
	// storage location (empty, or escaping the store root).
	ErrInvalidContentID = errors.New("invalid content id")
)

// ContentStore holds document bytes.
//
// The catalog owns the mapping from documents to ContentIDs; the content
// store knows nothing about folders, tags or access. Implementations must
// be safe for concurrent use. Writes to the same id are last-write-wins.
type ContentStore interface {
	// WriteContent stores data under id, replacing previous content.
	WriteContent(ctx context.Context, id ContentID, data []byte) error

	// ReadContent returns a reader for the content. The caller must close it.
	// Returns an error wrapping ErrContentNotFound for unknown ids.
	ReadContent(ctx context.Context, id ContentID) (io.ReadCloser, error)

	// GetContentSize returns the size of the content in bytes.
	GetContentSize(ctx context.Context, id ContentID) (uint64, error)

	// ContentExists reports whether content is stored under id.
	ContentExists(ctx context.Context, id ContentID) (bool, error)

	// Delete removes content. Deleting unknown content is not an error.
	Delete(ctx context.Context, id ContentID) error

	// GetStorageStats reports usage figures for the store.
	GetStorageStats(ctx context.Context) (*StorageStats, error)
}

// GarbageCollectableStore is implemented by stores that can enumerate
// their content, which lets the collector find blobs no document
// references.
//
// Garbage Collection Process:
//  1. The catalog provides every referenced ContentID
//  2. ListAllContent returns every stored ContentID
//  3. unreferenced = stored - referenced
//  4. DeleteBatch removes the unreferenced set
type GarbageCollectableStore interface {
	ContentStore

	// ListAllContent returns all content ids in the store.
	ListAllContent(ctx context.Context) ([]ContentID, error)

	// DeleteBatch removes multiple items, best effort. Individual failures
	// are reported in the map; the error is reserved for cancellation or
	// catastrophic failure.
	DeleteBatch(ctx context.Context, ids []ContentID) (failures map[ContentID]error, err error)
}

// StorageStats contains statistics about content storage. Backends that
// cannot report a figure leave it at 0 (or MaxUint64 for unbounded
// capacity).
type StorageStats struct {
	TotalSize     uint64
	UsedSize      uint64
	AvailableSize uint64
	ContentCount  uint64
	AverageSize   uint64
}

// AverageSize divides used by count, returning 0 for an empty store.
func AverageSize(used, count uint64) uint64 {
	if count == 0 {
		return 0
	}
	return used / count
}
