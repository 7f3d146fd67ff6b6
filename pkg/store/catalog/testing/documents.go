package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunDocumentTests(t *testing.T) {
	t.Run("PutAndGet", suite.testPutAndGetDocument)
	t.Run("ListByFolder", suite.testListFolderDocuments)
	t.Run("ListByTag", suite.testListTaggedDocuments)
	t.Run("RetagUpdatesIndex", suite.testRetagDocument)
	t.Run("Delete", suite.testDeleteDocument)
}

func (suite *StoreTestSuite) testPutAndGetDocument(t *testing.T) {
	s := suite.store(t)

	doc := NewDocument("d1", "Q1.pdf", catalog.StringID("reports"), 1, "urgent")
	doc.Description = "quarterly"
	doc.MediaType = "application/pdf"

	update(t, s, func(tx catalog.Tx) error { return tx.PutDocument(doc) })

	view(t, s, func(tx catalog.Tx) error {
		got, err := tx.GetDocument("d1")
		require.NoError(t, err)
		assert.Equal(t, "Q1.pdf", got.Name)
		assert.Equal(t, "quarterly", got.Description)
		assert.Equal(t, []string{"urgent"}, got.Tags)
		assert.Equal(t, catalog.FileTypePDF, got.Type)
		assert.Equal(t, int64(1024), got.Size)
		require.NotNil(t, got.FolderID)
		assert.Equal(t, "reports", *got.FolderID)

		_, err = tx.GetDocument("missing")
		AssertErrorCode(t, catalog.ErrNotFound, err)
		return nil
	})
}

func (suite *StoreTestSuite) testListFolderDocuments(t *testing.T) {
	s := suite.store(t)
	reports := catalog.StringID("reports")

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutDocument(NewDocument("d2", "b.pdf", reports, 2)))
		require.NoError(t, tx.PutDocument(NewDocument("d1", "a.pdf", reports, 1)))
		require.NoError(t, tx.PutDocument(NewDocument("d3", "root.pdf", nil, 3)))
		return nil
	})

	view(t, s, func(tx catalog.Tx) error {
		inReports, err := tx.ListFolderDocuments(reports)
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2"}, documentIDs(inReports))

		atRoot, err := tx.ListFolderDocuments(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"d3"}, documentIDs(atRoot))

		all, err := tx.ListDocuments()
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2", "d3"}, documentIDs(all))
		return nil
	})
}

func (suite *StoreTestSuite) testListTaggedDocuments(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutDocument(NewDocument("d1", "a.pdf", nil, 1, "t1", "t2")))
		require.NoError(t, tx.PutDocument(NewDocument("d2", "b.pdf", nil, 2, "t2")))
		require.NoError(t, tx.PutDocument(NewDocument("d3", "c.pdf", nil, 3)))
		return nil
	})

	view(t, s, func(tx catalog.Tx) error {
		t1, err := tx.ListTaggedDocuments("t1")
		require.NoError(t, err)
		assert.Equal(t, []string{"d1"}, documentIDs(t1))

		t2, err := tx.ListTaggedDocuments("t2")
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2"}, documentIDs(t2))

		none, err := tx.ListTaggedDocuments("t3")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	})
}

func (suite *StoreTestSuite) testRetagDocument(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutDocument(NewDocument("d1", "a.pdf", catalog.StringID("old"), 1, "t1"))
	})

	update(t, s, func(tx catalog.Tx) error {
		d, err := tx.GetDocument("d1")
		require.NoError(t, err)
		d.Tags = []string{"t2"}
		d.FolderID = catalog.StringID("new")
		return tx.PutDocument(d)
	})

	view(t, s, func(tx catalog.Tx) error {
		t1, err := tx.ListTaggedDocuments("t1")
		require.NoError(t, err)
		assert.Empty(t, t1)

		t2, err := tx.ListTaggedDocuments("t2")
		require.NoError(t, err)
		assert.Equal(t, []string{"d1"}, documentIDs(t2))

		old, err := tx.ListFolderDocuments(catalog.StringID("old"))
		require.NoError(t, err)
		assert.Empty(t, old)

		moved, err := tx.ListFolderDocuments(catalog.StringID("new"))
		require.NoError(t, err)
		assert.Equal(t, []string{"d1"}, documentIDs(moved))
		return nil
	})
}

func (suite *StoreTestSuite) testDeleteDocument(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutDocument(NewDocument("d1", "a.pdf", nil, 1, "t1"))
	})
	update(t, s, func(tx catalog.Tx) error { return tx.DeleteDocument("d1") })

	view(t, s, func(tx catalog.Tx) error {
		_, err := tx.GetDocument("d1")
		AssertErrorCode(t, catalog.ErrNotFound, err)

		tagged, err := tx.ListTaggedDocuments("t1")
		require.NoError(t, err)
		assert.Empty(t, tagged)

		atRoot, err := tx.ListFolderDocuments(nil)
		require.NoError(t, err)
		assert.Empty(t, atRoot)
		return nil
	})

	err := s.Update(t.Context(), func(tx catalog.Tx) error { return tx.DeleteDocument("d1") })
	AssertErrorCode(t, catalog.ErrNotFound, err)
}
