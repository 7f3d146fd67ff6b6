package catalog

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// Store persists the drive catalog: folders, documents, tags and the user
// directory.
//
// All access goes through transactions. View runs fn against a consistent
// read-only snapshot. Update runs fn with write access and commits every
// change fn made if and only if fn returns nil; on error nothing is
// applied. Concurrent Update calls are serialized (memory) or conflict
// checked and retried (badger retries a bounded number of times, then
// returns an ErrConflict StoreError).
//
// Implementations must be safe for concurrent use.
type Store interface {
	// View executes fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update executes fn in a read-write transaction.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a transaction.
//
// Getters return copies: callers mutate the copy and Put it back.
// Getters return a *StoreError with ErrNotFound for unknown ids. Put
// replaces any existing entity with the same id. Writes on a read-only
// transaction fail with ErrIOError.
//
// Folder and document lists are ordered by creation time, then id; tags
// by name, users by id.
type Tx interface {
	GetFolder(id string) (*Folder, error)
	PutFolder(f *Folder) error
	DeleteFolder(id string) error
	ListFolders() ([]*Folder, error)

	// ListChildFolders returns the folders whose ParentID equals parentID
	// (nil for root-level folders).
	ListChildFolders(parentID *string) ([]*Folder, error)

	GetDocument(id string) (*Document, error)
	PutDocument(d *Document) error
	DeleteDocument(id string) error
	ListDocuments() ([]*Document, error)

	// ListFolderDocuments returns the documents whose FolderID equals
	// folderID (nil for root-level documents).
	ListFolderDocuments(folderID *string) ([]*Document, error)

	// ListTaggedDocuments returns the documents carrying tagID.
	ListTaggedDocuments(tagID string) ([]*Document, error)

	GetTag(id string) (*Tag, error)
	PutTag(t *Tag) error
	DeleteTag(id string) error
	ListTags() ([]*Tag, error)

	GetUser(id string) (*User, error)
	PutUser(u *User) error
	ListUsers() ([]*User, error)
}

// SortFolders orders folders by creation time, then id.
func SortFolders(folders []*Folder) {
	slices.SortFunc(folders, func(a, b *Folder) int {
		return byCreation(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
}

// SortDocuments orders documents by creation time, then id.
func SortDocuments(docs []*Document) {
	slices.SortFunc(docs, func(a, b *Document) int {
		return byCreation(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
}

// SortTags orders tags by name, then id. Tags carry no timestamps.
func SortTags(tags []*Tag) {
	slices.SortFunc(tags, func(a, b *Tag) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortUsers orders users by id.
func SortUsers(users []*User) {
	slices.SortFunc(users, func(a, b *User) int { return cmp.Compare(a.ID, b.ID) })
}

func byCreation(ta time.Time, ida string, tb time.Time, idb string) int {
	if c := ta.Compare(tb); c != 0 {
		return c
	}
	return cmp.Compare(ida, idb)
}
