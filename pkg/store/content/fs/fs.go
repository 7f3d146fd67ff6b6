package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marmos91/dittodrive/pkg/store/content"
)

// tempPrefix marks in-flight writes; ListAllContent skips them.
const tempPrefix = ".tmp-"

// FSContentStore stores each blob as one file under basePath.
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so readers never observe partially written content.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates the base directory if needed.
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if basePath == "" {
		return nil, fmt.Errorf("filesystem path is required")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath maps id to a file directly under basePath. Ids that would
// resolve elsewhere are rejected.
func (r *FSContentStore) getFilePath(id content.ContentID) (string, error) {
	name := string(id)
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, tempPrefix) {
		return "", fmt.Errorf("%q: %w", name, content.ErrInvalidContentID)
	}
	return filepath.Join(r.basePath, name), nil
}

func (r *FSContentStore) WriteContent(ctx context.Context, id content.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.getFilePath(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.basePath, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close content file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit content: %w", err)
	}
	return nil
}

func (r *FSContentStore) ReadContent(ctx context.Context, id content.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := r.getFilePath(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open content: %w", err)
	}
	return f, nil
}

func (r *FSContentStore) GetContentSize(ctx context.Context, id content.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path, err := r.getFilePath(id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}
	return uint64(info.Size()), nil
}

func (r *FSContentStore) ContentExists(ctx context.Context, id content.ContentID) (bool, error) {
	if _, err := r.GetContentSize(ctx, id); err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *FSContentStore) Delete(ctx context.Context, id content.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.getFilePath(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// GetStorageStats scans the base directory. Capacity figures are left at 0.
func (r *FSContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := r.contentEntries()
	if err != nil {
		return nil, err
	}

	var used, count uint64
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		used += uint64(info.Size())
		count++
	}

	return &content.StorageStats{
		UsedSize:     used,
		ContentCount: count,
		AverageSize:  content.AverageSize(used, count),
	}, nil
}

func (r *FSContentStore) ListAllContent(ctx context.Context) ([]content.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := r.contentEntries()
	if err != nil {
		return nil, err
	}

	ids := make([]content.ContentID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, content.ContentID(entry.Name()))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *FSContentStore) DeleteBatch(ctx context.Context, ids []content.ContentID) (map[content.ContentID]error, error) {
	failures := make(map[content.ContentID]error)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			for _, rest := range ids[i:] {
				failures[rest] = err
			}
			return failures, err
		}
		if err := r.Delete(ctx, id); err != nil {
			failures[id] = err
		}
	}
	return failures, nil
}

func (r *FSContentStore) contentEntries() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	out := entries[:0]
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), tempPrefix) {
			out = append(out, entry)
		}
	}
	return out, nil
}
