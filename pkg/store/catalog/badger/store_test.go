package badger_test

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/marmos91/dittodrive/pkg/store/catalog/badger"
	catalogtesting "github.com/marmos91/dittodrive/pkg/store/catalog/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCatalogStore(t *testing.T) {
	suite := &catalogtesting.StoreTestSuite{
		NewStore: func(t *testing.T) catalog.Store {
			// Enough retries for every concurrent writer the suite starts.
			store, err := badger.NewBadgerCatalogStore(context.Background(), badger.BadgerCatalogStoreConfig{
				DBPath:          t.TempDir(),
				ConflictRetries: 64,
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestBadgerCatalogStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := badger.NewBadgerCatalogStore(ctx, badger.BadgerCatalogStoreConfig{DBPath: dir})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutFolder(catalogtesting.NewFolder("a", "Reports", nil, 1)))
		return tx.PutDocument(catalogtesting.NewDocument("d1", "Q1.pdf", catalog.StringID("a"), 2, "t1"))
	}))
	require.NoError(t, store.Close())

	reopened, err := badger.NewBadgerCatalogStore(ctx, badger.BadgerCatalogStoreConfig{DBPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.View(ctx, func(tx catalog.Tx) error {
		docs, err := tx.ListFolderDocuments(catalog.StringID("a"))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Q1.pdf", docs[0].Name)

		tagged, err := tx.ListTaggedDocuments("t1")
		require.NoError(t, err)
		assert.Len(t, tagged, 1)
		return nil
	}))
}

func TestBadgerCatalogStore_InMemory(t *testing.T) {
	store, err := badger.NewBadgerCatalogStore(context.Background(), badger.BadgerCatalogStoreConfig{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Healthcheck(context.Background()))
}

// interleave runs fn in an Update that reads d1, lets a second transaction
// rewrite d1 on the attempts listed in clobber, then writes d1 itself.
func interleave(t *testing.T, store *badger.BadgerCatalogStore, clobber map[int]bool, tag string) (int, error) {
	t.Helper()
	ctx := context.Background()
	attempts := 0

	err := store.Update(ctx, func(tx catalog.Tx) error {
		attempts++
		d, err := tx.GetDocument("d1")
		if err != nil {
			return err
		}

		if clobber[attempts] {
			require.NoError(t, store.Update(ctx, func(other catalog.Tx) error {
				od, err := other.GetDocument("d1")
				if err != nil {
					return err
				}
				od.Tags = append(od.Tags, "other")
				return other.PutDocument(od)
			}))
		}

		d.Tags = append(d.Tags, tag)
		return tx.PutDocument(d)
	})
	return attempts, err
}

func seedDocument(t *testing.T, store *badger.BadgerCatalogStore) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), func(tx catalog.Tx) error {
		return tx.PutDocument(catalogtesting.NewDocument("d1", "shared.pdf", nil, 1))
	}))
}

func TestBadgerCatalogStore_ConflictRetriesExhausted(t *testing.T) {
	store, err := badger.NewBadgerCatalogStore(context.Background(), badger.BadgerCatalogStoreConfig{
		DBPath:          t.TempDir(),
		ConflictRetries: 1,
	})
	require.NoError(t, err)
	defer store.Close()
	seedDocument(t, store)

	attempts, err := interleave(t, store, map[int]bool{1: true}, "mine")
	catalogtesting.AssertErrorCode(t, catalog.ErrConflict, err)
	assert.True(t, catalog.IsConflict(err))
	assert.Equal(t, 1, attempts)

	// The losing transaction left nothing behind.
	require.NoError(t, store.View(context.Background(), func(tx catalog.Tx) error {
		d, err := tx.GetDocument("d1")
		require.NoError(t, err)
		assert.Equal(t, []string{"other"}, d.Tags)
		return nil
	}))
}

func TestBadgerCatalogStore_ConflictRetried(t *testing.T) {
	store, err := badger.NewBadgerCatalogStore(context.Background(), badger.BadgerCatalogStoreConfig{
		DBPath:          t.TempDir(),
		ConflictRetries: 3,
	})
	require.NoError(t, err)
	defer store.Close()
	seedDocument(t, store)

	attempts, err := interleave(t, store, map[int]bool{1: true, 2: true}, "mine")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	require.NoError(t, store.View(context.Background(), func(tx catalog.Tx) error {
		d, err := tx.GetDocument("d1")
		require.NoError(t, err)
		assert.Equal(t, []string{"other", "other", "mine"}, d.Tags)
		return nil
	}))
}
