package drive

import (
	"context"
	"sync"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// Browser holds the view state of one client session and caches the read
// model derived from it. Any state change, or an explicit Refresh after a
// mutation, invalidates the cache; the next Model call recomputes it.
type Browser struct {
	drive *Drive

	mu    sync.Mutex
	query ViewQuery
	model *ReadModel
}

// NewBrowser returns a browser positioned at the root, sorted by name
// ascending, with no search.
func (d *Drive) NewBrowser() *Browser {
	return &Browser{
		drive: d,
		query: ViewQuery{Sort: Sort{Option: SortByName, Direction: SortAsc}},
	}
}

// Query returns the current view state.
func (b *Browser) Query() ViewQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.query
	q.FolderID = cloneParent(q.FolderID)
	return q
}

// Open moves to folderID (nil for the root).
func (b *Browser) Open(folderID *string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if catalog.SameID(b.query.FolderID, folderID) {
		return
	}
	b.query.FolderID = cloneParent(folderID)
	b.model = nil
}

// Search sets the search query; an empty query browses the current folder.
func (b *Browser) Search(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.query.Search == query {
		return
	}
	b.query.Search = query
	b.model = nil
}

// SortBy sets the sort option and direction.
func (b *Browser) SortBy(s Sort) error {
	s, err := ParseSort(string(s.Option), string(s.Direction))
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.query.Sort == s {
		return nil
	}
	b.query.Sort = s
	b.model = nil
	return nil
}

// Refresh drops the cached read model.
func (b *Browser) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = nil
}

// Model returns the read model for the current state, computing it if the
// state changed since the last call.
func (b *Browser) Model(ctx context.Context) (*ReadModel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.model != nil {
		return b.model, nil
	}

	model, err := b.drive.Browse(ctx, b.query)
	if err != nil {
		return nil, err
	}
	b.model = model
	return model, nil
}
