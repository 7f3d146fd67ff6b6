package testing

import (
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunFolderTests(t *testing.T) {
	t.Run("PutAndGet", suite.testPutAndGetFolder)
	t.Run("GetMissing", suite.testGetMissingFolder)
	t.Run("ListChildren", suite.testListChildFolders)
	t.Run("MoveUpdatesIndex", suite.testMoveFolder)
	t.Run("Delete", suite.testDeleteFolder)
	t.Run("ReturnsCopies", suite.testFolderCopies)
}

func (suite *StoreTestSuite) testPutAndGetFolder(t *testing.T) {
	s := suite.store(t)
	parent := catalog.StringID("root-folder")

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutFolder(NewFolder("f1", "Reports", parent, 1))
	})

	view(t, s, func(tx catalog.Tx) error {
		f, err := tx.GetFolder("f1")
		require.NoError(t, err)
		assert.Equal(t, "Reports", f.Name)
		require.NotNil(t, f.ParentID)
		assert.Equal(t, "root-folder", *f.ParentID)
		assert.Equal(t, catalog.PermissionOwner, f.Access[0].Permission)
		assert.True(t, f.CreatedAt.Equal(epoch.Add(time.Minute)))
		return nil
	})
}

func (suite *StoreTestSuite) testGetMissingFolder(t *testing.T) {
	s := suite.store(t)

	view(t, s, func(tx catalog.Tx) error {
		_, err := tx.GetFolder("missing")
		AssertErrorCode(t, catalog.ErrNotFound, err)
		return nil
	})

	err := s.Update(t.Context(), func(tx catalog.Tx) error {
		return tx.DeleteFolder("missing")
	})
	AssertErrorCode(t, catalog.ErrNotFound, err)
}

func (suite *StoreTestSuite) testListChildFolders(t *testing.T) {
	s := suite.store(t)
	a := catalog.StringID("a")

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutFolder(NewFolder("a", "A", nil, 1)))
		require.NoError(t, tx.PutFolder(NewFolder("b", "B", nil, 2)))
		require.NoError(t, tx.PutFolder(NewFolder("a2", "A2", a, 4)))
		require.NoError(t, tx.PutFolder(NewFolder("a1", "A1", a, 3)))
		// Parent id shares a prefix with "a".
		require.NoError(t, tx.PutFolder(NewFolder("x", "X", catalog.StringID("ab"), 5)))
		return nil
	})

	view(t, s, func(tx catalog.Tx) error {
		roots, err := tx.ListChildFolders(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, folderIDs(roots))

		children, err := tx.ListChildFolders(a)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2"}, folderIDs(children), "ordered by creation time")

		none, err := tx.ListChildFolders(catalog.StringID("b"))
		require.NoError(t, err)
		assert.Empty(t, none)

		all, err := tx.ListFolders()
		require.NoError(t, err)
		assert.Len(t, all, 5)
		return nil
	})
}

func (suite *StoreTestSuite) testMoveFolder(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutFolder(NewFolder("a", "A", nil, 1)))
		require.NoError(t, tx.PutFolder(NewFolder("b", "B", nil, 2)))
		return tx.PutFolder(NewFolder("c", "C", catalog.StringID("a"), 3))
	})

	update(t, s, func(tx catalog.Tx) error {
		c, err := tx.GetFolder("c")
		require.NoError(t, err)
		c.ParentID = catalog.StringID("b")
		return tx.PutFolder(c)
	})

	view(t, s, func(tx catalog.Tx) error {
		underA, err := tx.ListChildFolders(catalog.StringID("a"))
		require.NoError(t, err)
		assert.Empty(t, underA)

		underB, err := tx.ListChildFolders(catalog.StringID("b"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, folderIDs(underB))
		return nil
	})
}

func (suite *StoreTestSuite) testDeleteFolder(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutFolder(NewFolder("a", "A", nil, 1))
	})
	update(t, s, func(tx catalog.Tx) error {
		return tx.DeleteFolder("a")
	})

	view(t, s, func(tx catalog.Tx) error {
		_, err := tx.GetFolder("a")
		AssertErrorCode(t, catalog.ErrNotFound, err)

		roots, err := tx.ListChildFolders(nil)
		require.NoError(t, err)
		assert.Empty(t, roots)
		return nil
	})
}

func (suite *StoreTestSuite) testFolderCopies(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutFolder(NewFolder("a", "A", nil, 1))
	})

	view(t, s, func(tx catalog.Tx) error {
		f, err := tx.GetFolder("a")
		require.NoError(t, err)
		f.Name = "mutated"
		f.Access[0].Permission = catalog.PermissionView

		again, err := tx.GetFolder("a")
		require.NoError(t, err)
		assert.Equal(t, "A", again.Name)
		assert.Equal(t, catalog.PermissionOwner, again.Access[0].Permission)
		return nil
	})
}
