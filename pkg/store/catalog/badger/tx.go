package badger

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

type badgerTx struct {
	txn      *badger.Txn
	writable bool
}

var errReadOnly = &catalog.StoreError{Code: catalog.ErrIOError, Message: "write in read-only transaction"}

func (tx *badgerTx) checkWritable() error {
	if !tx.writable {
		return errReadOnly
	}
	return nil
}

// getRow loads and decodes a single entity.
func getRow[T any](tx *badgerTx, kind string, key []byte, id string) (*T, error) {
	item, err := tx.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, catalog.NotFound(kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}

	var out *T
	err = item.Value(func(val []byte) error {
		v, err := decode[T](kind, val)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func putRow[T any](tx *badgerTx, kind string, key []byte, v *T) error {
	bytes, err := encode(kind, v)
	if err != nil {
		return err
	}
	if err := tx.txn.Set(key, bytes); err != nil {
		return fmt.Errorf("failed to store %s: %w", kind, err)
	}
	return nil
}

// scanRows decodes every value under prefix.
func scanRows[T any](tx *badgerTx, kind, prefix string) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = []byte(prefix)

	it := tx.txn.NewIterator(opts)
	defer it.Close()

	out := make([]*T, 0)
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			v, err := decode[T](kind, val)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scanIndex returns the entity ids stored under an index prefix.
func (tx *badgerTx) scanIndex(prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := tx.txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, indexedID(it.Item().Key(), prefix))
	}
	return ids
}

func (tx *badgerTx) set(key []byte) error {
	if err := tx.txn.Set(key, []byte{}); err != nil {
		return fmt.Errorf("failed to set index: %w", err)
	}
	return nil
}

func (tx *badgerTx) del(key []byte) error {
	if err := tx.txn.Delete(key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Folders

func (tx *badgerTx) GetFolder(id string) (*catalog.Folder, error) {
	return getRow[catalog.Folder](tx, "folder", keyFolder(id), id)
}

func (tx *badgerTx) PutFolder(f *catalog.Folder) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}

	old, err := tx.GetFolder(f.ID)
	switch {
	case err == nil:
		if !catalog.SameID(old.ParentID, f.ParentID) {
			if err := tx.del(keyChildFolder(old.ParentID, old.ID)); err != nil {
				return err
			}
		}
	case !catalog.IsNotFound(err):
		return err
	}

	if err := putRow(tx, "folder", keyFolder(f.ID), f); err != nil {
		return err
	}
	return tx.set(keyChildFolder(f.ParentID, f.ID))
}

func (tx *badgerTx) DeleteFolder(id string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	old, err := tx.GetFolder(id)
	if err != nil {
		return err
	}
	if err := tx.del(keyChildFolder(old.ParentID, id)); err != nil {
		return err
	}
	return tx.del(keyFolder(id))
}

func (tx *badgerTx) ListFolders() ([]*catalog.Folder, error) {
	folders, err := scanRows[catalog.Folder](tx, "folder", prefixFolder)
	if err != nil {
		return nil, err
	}
	catalog.SortFolders(folders)
	return folders, nil
}

func (tx *badgerTx) ListChildFolders(parentID *string) ([]*catalog.Folder, error) {
	ids := tx.scanIndex(keyChildFolderPrefix(parentID))
	folders := make([]*catalog.Folder, 0, len(ids))
	for _, id := range ids {
		f, err := tx.GetFolder(id)
		if err != nil {
			return nil, fmt.Errorf("child folder index: %w", err)
		}
		folders = append(folders, f)
	}
	catalog.SortFolders(folders)
	return folders, nil
}

// Documents

func (tx *badgerTx) GetDocument(id string) (*catalog.Document, error) {
	return getRow[catalog.Document](tx, "document", keyDocument(id), id)
}

func (tx *badgerTx) PutDocument(d *catalog.Document) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}

	old, err := tx.GetDocument(d.ID)
	switch {
	case err == nil:
		if err := tx.unindexDocument(old); err != nil {
			return err
		}
	case !catalog.IsNotFound(err):
		return err
	}

	if err := putRow(tx, "document", keyDocument(d.ID), d); err != nil {
		return err
	}
	if err := tx.set(keyFolderDocument(d.FolderID, d.ID)); err != nil {
		return err
	}
	for _, tagID := range d.Tags {
		if err := tx.set(keyTagDocument(tagID, d.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerTx) unindexDocument(d *catalog.Document) error {
	if err := tx.del(keyFolderDocument(d.FolderID, d.ID)); err != nil {
		return err
	}
	for _, tagID := range d.Tags {
		if err := tx.del(keyTagDocument(tagID, d.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerTx) DeleteDocument(id string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	old, err := tx.GetDocument(id)
	if err != nil {
		return err
	}
	if err := tx.unindexDocument(old); err != nil {
		return err
	}
	return tx.del(keyDocument(id))
}

func (tx *badgerTx) ListDocuments() ([]*catalog.Document, error) {
	docs, err := scanRows[catalog.Document](tx, "document", prefixDocument)
	if err != nil {
		return nil, err
	}
	catalog.SortDocuments(docs)
	return docs, nil
}

func (tx *badgerTx) ListFolderDocuments(folderID *string) ([]*catalog.Document, error) {
	return tx.documentsByIndex(keyFolderDocumentPrefix(folderID))
}

func (tx *badgerTx) ListTaggedDocuments(tagID string) ([]*catalog.Document, error) {
	return tx.documentsByIndex(keyTagDocumentPrefix(tagID))
}

func (tx *badgerTx) documentsByIndex(prefix []byte) ([]*catalog.Document, error) {
	ids := tx.scanIndex(prefix)
	docs := make([]*catalog.Document, 0, len(ids))
	for _, id := range ids {
		d, err := tx.GetDocument(id)
		if err != nil {
			return nil, fmt.Errorf("document index: %w", err)
		}
		docs = append(docs, d)
	}
	catalog.SortDocuments(docs)
	return docs, nil
}

// Tags

func (tx *badgerTx) GetTag(id string) (*catalog.Tag, error) {
	return getRow[catalog.Tag](tx, "tag", keyTag(id), id)
}

func (tx *badgerTx) PutTag(t *catalog.Tag) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return putRow(tx, "tag", keyTag(t.ID), t)
}

func (tx *badgerTx) DeleteTag(id string) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if _, err := tx.GetTag(id); err != nil {
		return err
	}
	return tx.del(keyTag(id))
}

func (tx *badgerTx) ListTags() ([]*catalog.Tag, error) {
	tags, err := scanRows[catalog.Tag](tx, "tag", prefixTag)
	if err != nil {
		return nil, err
	}
	catalog.SortTags(tags)
	return tags, nil
}

// Users

func (tx *badgerTx) GetUser(id string) (*catalog.User, error) {
	return getRow[catalog.User](tx, "user", keyUser(id), id)
}

func (tx *badgerTx) PutUser(u *catalog.User) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	return putRow(tx, "user", keyUser(u.ID), u)
}

func (tx *badgerTx) ListUsers() ([]*catalog.User, error) {
	users, err := scanRows[catalog.User](tx, "user", prefixUser)
	if err != nil {
		return nil, err
	}
	catalog.SortUsers(users)
	return users, nil
}
