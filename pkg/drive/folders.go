package drive

import (
	"context"
	"slices"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// MaxPathDepth bounds PathTo. A deeper chain is treated as corrupt.
const MaxPathDepth = 1024

// CreateFolderRequest describes a new folder.
type CreateFolderRequest struct {
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id"`
	CreatedBy string  `json:"-"`
}

// FolderPatch lists the folder fields to change. Absent fields are kept.
type FolderPatch struct {
	Name      Optional[string]  `json:"name"`
	ParentID  Optional[*string] `json:"parent_id"`
	IfVersion Optional[uint64]  `json:"if_version"`
}

// Contents is the direct content of a folder, in creation order.
type Contents struct {
	Folders   []*catalog.Folder   `json:"folders"`
	Documents []*catalog.Document `json:"documents"`
}

// CreateFolder creates a folder under req.ParentID (nil for the root).
// The creator becomes its owner.
func (d *Drive) CreateFolder(ctx context.Context, req CreateFolderRequest) (folder *catalog.Folder, err error) {
	defer d.observe("create_folder", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	name, err := requireName("folder", req.Name)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy == "" {
		return nil, catalog.NewError(catalog.ErrValidation, "creator is required")
	}

	now := d.now()
	folder = &catalog.Folder{
		ID:        d.newID(),
		Name:      name,
		ParentID:  cloneParent(req.ParentID),
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: req.CreatedBy,
		Access:    []catalog.AccessEntry{{UserID: req.CreatedBy, Permission: catalog.PermissionOwner}},
		Version:   1,
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		if folder.ParentID != nil {
			if _, err := tx.GetFolder(*folder.ParentID); err != nil {
				return err
			}
		}
		return tx.PutFolder(folder)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Created folder %q (%s)", folder.Name, folder.ID)
	return folder, nil
}

// UpdateFolder applies patch to the folder. Moving a folder under itself or
// one of its descendants is rejected.
func (d *Drive) UpdateFolder(ctx context.Context, id string, patch FolderPatch) (folder *catalog.Folder, err error) {
	defer d.observe("update_folder", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		f, err := tx.GetFolder(id)
		if err != nil {
			return err
		}
		if err := checkVersion(patch.IfVersion, f.Version, id); err != nil {
			return err
		}

		if name, ok := patch.Name.Get(); ok {
			if f.Name, err = requireName("folder", name); err != nil {
				return err
			}
		}

		if parentID, ok := patch.ParentID.Get(); ok {
			if err := checkMove(tx, id, parentID); err != nil {
				return err
			}
			f.ParentID = cloneParent(parentID)
		}

		f.UpdatedAt = d.now()
		f.Version++
		folder = f
		return tx.PutFolder(f)
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// checkMove verifies that parentID exists and is not id or below it.
func checkMove(tx catalog.Tx, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}

	seen := make(map[string]struct{})
	cur := *parentID
	for depth := 0; ; depth++ {
		if cur == id {
			return catalog.NewError(catalog.ErrValidation, "cannot move folder into itself or a descendant")
		}
		if _, dup := seen[cur]; dup || depth >= MaxPathDepth {
			return &catalog.StoreError{Code: catalog.ErrDataIntegrity, Message: "folder hierarchy contains a cycle", ID: cur}
		}
		seen[cur] = struct{}{}

		f, err := tx.GetFolder(cur)
		if err != nil {
			if depth > 0 && catalog.IsNotFound(err) {
				return &catalog.StoreError{Code: catalog.ErrDataIntegrity, Message: "dangling parent reference", ID: cur}
			}
			return err
		}
		if f.ParentID == nil {
			return nil
		}
		cur = *f.ParentID
	}
}

// DeleteFolder removes an empty folder.
func (d *Drive) DeleteFolder(ctx context.Context, id string) (err error) {
	defer d.observe("delete_folder", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return err
	}

	err = d.store.Update(ctx, func(tx catalog.Tx) error {
		if _, err := tx.GetFolder(id); err != nil {
			return err
		}

		children, err := tx.ListChildFolders(&id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return &catalog.StoreError{Code: catalog.ErrConflict, Message: "cannot delete folder with subfolders", ID: id}
		}

		docs, err := tx.ListFolderDocuments(&id)
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return &catalog.StoreError{Code: catalog.ErrConflict, Message: "cannot delete folder with documents", ID: id}
		}

		return tx.DeleteFolder(id)
	})
	if err != nil {
		return err
	}

	logger.Info("Deleted folder %s", id)
	return nil
}

// GetFolder returns one folder.
func (d *Drive) GetFolder(ctx context.Context, id string) (folder *catalog.Folder, err error) {
	defer d.observe("get_folder", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		folder, err = tx.GetFolder(id)
		return err
	})
	return folder, err
}

// ListFolders returns every folder in creation order.
func (d *Drive) ListFolders(ctx context.Context) (folders []*catalog.Folder, err error) {
	defer d.observe("list_folders", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		folders, err = tx.ListFolders()
		return err
	})
	return folders, err
}

// ChildrenOf returns the folders and documents directly inside parentID
// (nil for the root). An unknown parent simply has no children.
func (d *Drive) ChildrenOf(ctx context.Context, parentID *string) (contents *Contents, err error) {
	defer d.observe("children_of", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		contents, err = childrenOf(tx, parentID)
		return err
	})
	return contents, err
}

func childrenOf(tx catalog.Tx, parentID *string) (*Contents, error) {
	folders, err := tx.ListChildFolders(parentID)
	if err != nil {
		return nil, err
	}
	docs, err := tx.ListFolderDocuments(parentID)
	if err != nil {
		return nil, err
	}
	return &Contents{Folders: folders, Documents: docs}, nil
}

// PathTo returns the chain of folders from the root down to folderID,
// inclusive. A nil id yields an empty path.
func (d *Drive) PathTo(ctx context.Context, folderID *string) (path []*catalog.Folder, err error) {
	defer d.observe("path_to", time.Now(), &err)
	if err = d.delay(ctx); err != nil {
		return nil, err
	}

	err = d.store.View(ctx, func(tx catalog.Tx) error {
		path, err = pathTo(tx, folderID)
		return err
	})
	return path, err
}

func pathTo(tx catalog.Tx, folderID *string) ([]*catalog.Folder, error) {
	path := []*catalog.Folder{}
	if folderID == nil {
		return path, nil
	}

	seen := make(map[string]struct{})
	cur := *folderID
	for {
		if _, dup := seen[cur]; dup {
			return nil, &catalog.StoreError{Code: catalog.ErrDataIntegrity, Message: "folder hierarchy contains a cycle", ID: cur}
		}
		if len(path) >= MaxPathDepth {
			return nil, &catalog.StoreError{Code: catalog.ErrDataIntegrity, Message: "folder hierarchy too deep", ID: *folderID}
		}
		seen[cur] = struct{}{}

		f, err := tx.GetFolder(cur)
		if err != nil {
			if len(path) > 0 && catalog.IsNotFound(err) {
				return nil, &catalog.StoreError{Code: catalog.ErrDataIntegrity, Message: "dangling parent reference", ID: cur}
			}
			return nil, err
		}

		path = append(path, f)
		if f.ParentID == nil {
			break
		}
		cur = *f.ParentID
	}

	slices.Reverse(path)
	return path, nil
}

func cloneParent(id *string) *string {
	if id == nil {
		return nil
	}
	return catalog.StringID(*id)
}
