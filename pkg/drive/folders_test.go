package drive

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func folderNames(folders []*catalog.Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("RootFolder", func(t *testing.T) {
		env := newTestEnv(t)
		f, err := env.drive.CreateFolder(ctx, CreateFolderRequest{Name: "  Reports ", CreatedBy: alice})
		require.NoError(t, err)

		assert.Equal(t, "Reports", f.Name)
		assert.Nil(t, f.ParentID)
		assert.Equal(t, f.CreatedAt, f.UpdatedAt)
		assert.Equal(t, uint64(1), f.Version)
		assert.Equal(t, []catalog.AccessEntry{{UserID: alice, Permission: catalog.PermissionOwner}}, f.Access)
	})

	t.Run("Nested", func(t *testing.T) {
		env := newTestEnv(t)
		parent := env.folder(t, "Parent", nil)
		child := env.folder(t, "Child", &parent.ID)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	})

	t.Run("EmptyName", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.drive.CreateFolder(ctx, CreateFolderRequest{Name: "   ", CreatedBy: alice})
		assertCode(t, catalog.ErrValidation, err)
	})

	t.Run("MissingCreator", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.drive.CreateFolder(ctx, CreateFolderRequest{Name: "x"})
		assertCode(t, catalog.ErrValidation, err)
	})

	t.Run("UnknownParent", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.drive.CreateFolder(ctx, CreateFolderRequest{Name: "x", ParentID: catalog.StringID("ghost"), CreatedBy: alice})
		assertCode(t, catalog.ErrNotFound, err)
	})
}

func TestUpdateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("Rename", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.folder(t, "Old", nil)

		updated, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{Name: Some("New")})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Name)
		assert.True(t, updated.UpdatedAt.After(f.UpdatedAt))
		assert.Equal(t, f.Version+1, updated.Version)
	})

	t.Run("EmptyPatchTouchesOnly", func(t *testing.T) {
		env := newTestEnv(t)
		parent := env.folder(t, "P", nil)
		f := env.folder(t, "F", &parent.ID)

		updated, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{})
		require.NoError(t, err)
		assert.Equal(t, "F", updated.Name)
		assert.Equal(t, parent.ID, *updated.ParentID)
	})

	t.Run("ExplicitEmptyName", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.folder(t, "Keep", nil)

		_, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{Name: Some("")})
		assertCode(t, catalog.ErrValidation, err)

		got, err := env.drive.GetFolder(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keep", got.Name)
	})

	t.Run("MoveToRoot", func(t *testing.T) {
		env := newTestEnv(t)
		parent := env.folder(t, "P", nil)
		f := env.folder(t, "F", &parent.ID)

		updated, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{ParentID: Some[*string](nil)})
		require.NoError(t, err)
		assert.Nil(t, updated.ParentID)
	})

	t.Run("RejectsCycles", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.folder(t, "A", nil)
		b := env.folder(t, "B", &a.ID)
		c := env.folder(t, "C", &b.ID)

		_, err := env.drive.UpdateFolder(ctx, a.ID, FolderPatch{ParentID: Some(&a.ID)})
		assertCode(t, catalog.ErrValidation, err)

		_, err = env.drive.UpdateFolder(ctx, a.ID, FolderPatch{ParentID: Some(&c.ID)})
		assertCode(t, catalog.ErrValidation, err)

		got, err := env.drive.GetFolder(ctx, a.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ParentID)
	})

	t.Run("UnknownParent", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.folder(t, "F", nil)
		_, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{ParentID: Some(catalog.StringID("ghost"))})
		assertCode(t, catalog.ErrNotFound, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.drive.UpdateFolder(ctx, "ghost", FolderPatch{Name: Some("x")})
		assertCode(t, catalog.ErrNotFound, err)
	})

	t.Run("VersionConflict", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.folder(t, "F", nil)

		_, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{Name: Some("G"), IfVersion: Some(f.Version + 5)})
		assertCode(t, catalog.ErrConflict, err)

		updated, err := env.drive.UpdateFolder(ctx, f.ID, FolderPatch{Name: Some("G"), IfVersion: Some(f.Version)})
		require.NoError(t, err)
		assert.Equal(t, "G", updated.Name)
	})
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		env := newTestEnv(t)
		f := env.folder(t, "Gone", nil)
		require.NoError(t, env.drive.DeleteFolder(ctx, f.ID))

		contents, err := env.drive.ChildrenOf(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, contents.Folders)
	})

	t.Run("WithSubfolder", func(t *testing.T) {
		env := newTestEnv(t)
		parent := env.folder(t, "P", nil)
		env.folder(t, "C", &parent.ID)

		err := env.drive.DeleteFolder(ctx, parent.ID)
		assertCode(t, catalog.ErrConflict, err)
		assert.Contains(t, err.Error(), "subfolders")
	})

	t.Run("WithDocument", func(t *testing.T) {
		env := newTestEnv(t)
		parent := env.folder(t, "P", nil)
		env.document(t, "a.pdf", 10, &parent.ID)

		err := env.drive.DeleteFolder(ctx, parent.ID)
		assertCode(t, catalog.ErrConflict, err)
		assert.Contains(t, err.Error(), "documents")

		_, err = env.drive.GetFolder(ctx, parent.ID)
		require.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		env := newTestEnv(t)
		assertCode(t, catalog.ErrNotFound, env.drive.DeleteFolder(ctx, "ghost"))
	})
}

func TestChildrenOf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a := env.folder(t, "A", nil)
	b := env.folder(t, "B", nil)
	a1 := env.folder(t, "A1", &a.ID)
	rootDoc := env.document(t, "root.pdf", 1, nil)
	aDoc := env.document(t, "a.pdf", 1, &a.ID)

	root, err := env.drive.ChildrenOf(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, folderNames(root.Folders))
	require.Len(t, root.Documents, 1)
	assert.Equal(t, rootDoc.ID, root.Documents[0].ID)

	inA, err := env.drive.ChildrenOf(ctx, &a.ID)
	require.NoError(t, err)
	require.Len(t, inA.Folders, 1)
	assert.Equal(t, a1.ID, inA.Folders[0].ID)
	require.Len(t, inA.Documents, 1)
	assert.Equal(t, aDoc.ID, inA.Documents[0].ID)

	inB, err := env.drive.ChildrenOf(ctx, &b.ID)
	require.NoError(t, err)
	assert.Empty(t, inB.Folders)
	assert.Empty(t, inB.Documents)
}

func TestPathTo(t *testing.T) {
	ctx := context.Background()

	t.Run("Root", func(t *testing.T) {
		env := newTestEnv(t)
		path, err := env.drive.PathTo(ctx, nil)
		require.NoError(t, err)
		assert.NotNil(t, path)
		assert.Empty(t, path)
	})

	t.Run("Chain", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.folder(t, "A", nil)
		b := env.folder(t, "B", &a.ID)
		c := env.folder(t, "C", &b.ID)

		path, err := env.drive.PathTo(ctx, &c.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, folderNames(path))
	})

	t.Run("UnknownStart", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.drive.PathTo(ctx, catalog.StringID("ghost"))
		assertCode(t, catalog.ErrNotFound, err)
	})

	t.Run("CorruptCycle", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.folder(t, "A", nil)
		b := env.folder(t, "B", &a.ID)

		// Bypass the drive to plant a cycle a -> b -> a.
		require.NoError(t, env.store.Update(ctx, func(tx catalog.Tx) error {
			f, err := tx.GetFolder(a.ID)
			if err != nil {
				return err
			}
			f.ParentID = &b.ID
			return tx.PutFolder(f)
		}))

		_, err := env.drive.PathTo(ctx, &b.ID)
		assertCode(t, catalog.ErrDataIntegrity, err)
	})

	t.Run("DanglingParent", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.folder(t, "A", nil)

		require.NoError(t, env.store.Update(ctx, func(tx catalog.Tx) error {
			f, err := tx.GetFolder(a.ID)
			if err != nil {
				return err
			}
			f.ParentID = catalog.StringID("vanished")
			return tx.PutFolder(f)
		}))

		_, err := env.drive.PathTo(ctx, &a.ID)
		assertCode(t, catalog.ErrDataIntegrity, err)
	})
}
