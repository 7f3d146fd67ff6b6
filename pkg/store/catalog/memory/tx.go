package memory

import (
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

type memoryTx struct {
	writable bool

	folders   *table[catalog.Folder]
	documents *table[catalog.Document]
	tags      *table[catalog.Tag]
	users     *table[catalog.User]
}

var errReadOnly = &catalog.StoreError{Code: catalog.ErrIOError, Message: "write in read-only transaction"}

func (tx *memoryTx) checkWritable() error {
	if !tx.writable {
		return errReadOnly
	}
	return nil
}

// Folders

func (tx *memoryTx) GetFolder(id string) (*catalog.Folder, error) {
	f, ok := tx.folders.get(id)
	if !ok {
		return nil, catalog.NotFound("folder", id)
	}
	return f, nil
}

func (tx *memoryTx) PutFolder(f *catalog.Folder) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.folders.put(f.ID, f)
	return nil
}

func (tx *memoryTx) DeleteFolder(id string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if !tx.folders.del(id) {
		return catalog.NotFound("folder", id)
	}
	return nil
}

func (tx *memoryTx) ListFolders() ([]*catalog.Folder, error) {
	return tx.filterFolders(func(*catalog.Folder) bool { return true }), nil
}

func (tx *memoryTx) ListChildFolders(parentID *string) ([]*catalog.Folder, error) {
	return tx.filterFolders(func(f *catalog.Folder) bool {
		return catalog.SameID(f.ParentID, parentID)
	}), nil
}

func (tx *memoryTx) filterFolders(keep func(*catalog.Folder) bool) []*catalog.Folder {
	out := make([]*catalog.Folder, 0)
	tx.folders.scan(func(f *catalog.Folder) {
		if keep(f) {
			out = append(out, f)
		}
	})
	catalog.SortFolders(out)
	return out
}

// Documents

func (tx *memoryTx) GetDocument(id string) (*catalog.Document, error) {
	d, ok := tx.documents.get(id)
	if !ok {
		return nil, catalog.NotFound("document", id)
	}
	return d, nil
}

func (tx *memoryTx) PutDocument(d *catalog.Document) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.documents.put(d.ID, d)
	return nil
}

func (tx *memoryTx) DeleteDocument(id string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if !tx.documents.del(id) {
		return catalog.NotFound("document", id)
	}
	return nil
}

func (tx *memoryTx) ListDocuments() ([]*catalog.Document, error) {
	return tx.filterDocuments(func(*catalog.Document) bool { return true }), nil
}

func (tx *memoryTx) ListFolderDocuments(folderID *string) ([]*catalog.Document, error) {
	return tx.filterDocuments(func(d *catalog.Document) bool {
		return catalog.SameID(d.FolderID, folderID)
	}), nil
}

func (tx *memoryTx) ListTaggedDocuments(tagID string) ([]*catalog.Document, error) {
	return tx.filterDocuments(func(d *catalog.Document) bool {
		return d.HasTag(tagID)
	}), nil
}

func (tx *memoryTx) filterDocuments(keep func(*catalog.Document) bool) []*catalog.Document {
	out := make([]*catalog.Document, 0)
	tx.documents.scan(func(d *catalog.Document) {
		if keep(d) {
			out = append(out, d)
		}
	})
	catalog.SortDocuments(out)
	return out
}

// Tags

func (tx *memoryTx) GetTag(id string) (*catalog.Tag, error) {
	t, ok := tx.tags.get(id)
	if !ok {
		return nil, catalog.NotFound("tag", id)
	}
	return t, nil
}

func (tx *memoryTx) PutTag(t *catalog.Tag) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.tags.put(t.ID, t)
	return nil
}

func (tx *memoryTx) DeleteTag(id string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if !tx.tags.del(id) {
		return catalog.NotFound("tag", id)
	}
	return nil
}

func (tx *memoryTx) ListTags() ([]*catalog.Tag, error) {
	out := make([]*catalog.Tag, 0)
	tx.tags.scan(func(t *catalog.Tag) { out = append(out, t) })
	catalog.SortTags(out)
	return out, nil
}

// Users

func (tx *memoryTx) GetUser(id string) (*catalog.User, error) {
	u, ok := tx.users.get(id)
	if !ok {
		return nil, catalog.NotFound("user", id)
	}
	return u, nil
}

func (tx *memoryTx) PutUser(u *catalog.User) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.users.put(u.ID, u)
	return nil
}

func (tx *memoryTx) ListUsers() ([]*catalog.User, error) {
	out := make([]*catalog.User, 0)
	tx.users.scan(func(u *catalog.User) { out = append(out, u) })
	catalog.SortUsers(out)
	return out, nil
}
