package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunTransactionTests(t *testing.T) {
	t.Run("RollbackOnError", suite.testRollbackOnError)
	t.Run("ReadOwnWrites", suite.testReadOwnWrites)
	t.Run("ViewIsReadOnly", suite.testViewIsReadOnly)
	t.Run("CancelledContext", suite.testCancelledContext)
	t.Run("ConcurrentUpdates", suite.testConcurrentUpdates)
}

func (suite *StoreTestSuite) testRollbackOnError(t *testing.T) {
	s := suite.store(t)
	boom := errors.New("boom")

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutDocument(NewDocument("d1", "a.pdf", nil, 1, "t1"))
	})

	err := s.Update(context.Background(), func(tx catalog.Tx) error {
		require.NoError(t, tx.PutFolder(NewFolder("a", "A", nil, 1)))
		require.NoError(t, tx.DeleteDocument("d1"))
		require.NoError(t, tx.PutTag(&catalog.Tag{ID: "t1", Name: "x"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	view(t, s, func(tx catalog.Tx) error {
		_, err := tx.GetFolder("a")
		AssertErrorCode(t, catalog.ErrNotFound, err)

		d, err := tx.GetDocument("d1")
		require.NoError(t, err, "delete must be rolled back")
		assert.Equal(t, []string{"t1"}, d.Tags)

		tags, err := tx.ListTags()
		require.NoError(t, err)
		assert.Empty(t, tags)
		return nil
	})
}

func (suite *StoreTestSuite) testReadOwnWrites(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutFolder(NewFolder("a", "A", nil, 1)))
		require.NoError(t, tx.PutDocument(NewDocument("d1", "a.pdf", catalog.StringID("a"), 2, "t1")))

		f, err := tx.GetFolder("a")
		require.NoError(t, err)
		assert.Equal(t, "A", f.Name)

		docs, err := tx.ListFolderDocuments(catalog.StringID("a"))
		require.NoError(t, err)
		assert.Equal(t, []string{"d1"}, documentIDs(docs))

		require.NoError(t, tx.DeleteDocument("d1"))
		tagged, err := tx.ListTaggedDocuments("t1")
		require.NoError(t, err)
		assert.Empty(t, tagged)
		return nil
	})
}

func (suite *StoreTestSuite) testViewIsReadOnly(t *testing.T) {
	s := suite.store(t)

	err := s.View(context.Background(), func(tx catalog.Tx) error {
		return tx.PutFolder(NewFolder("a", "A", nil, 1))
	})
	AssertErrorCode(t, catalog.ErrIOError, err)
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	s := suite.store(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, func(tx catalog.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// Every writer appends its own tag to the same document. Lost updates show
// up as missing tags.
func (suite *StoreTestSuite) testConcurrentUpdates(t *testing.T) {
	s := suite.store(t)
	const writers = 16

	update(t, s, func(tx catalog.Tx) error {
		return tx.PutDocument(NewDocument("d1", "shared.pdf", nil, 1))
	})

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			errs <- s.Update(context.Background(), func(tx catalog.Tx) error {
				d, err := tx.GetDocument("d1")
				if err != nil {
					return err
				}
				d.Tags = append(d.Tags, tag)
				return tx.PutDocument(d)
			})
		}(fmt.Sprintf("t-%d", i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	want := make([]string, 0, writers)
	for i := range writers {
		want = append(want, fmt.Sprintf("t-%d", i))
	}

	view(t, s, func(tx catalog.Tx) error {
		d, err := tx.GetDocument("d1")
		require.NoError(t, err)
		assert.ElementsMatch(t, want, d.Tags)

		for _, tag := range want {
			tagged, err := tx.ListTaggedDocuments(tag)
			require.NoError(t, err)
			assert.Equal(t, []string{"d1"}, documentIDs(tagged), "tag %s", tag)
		}
		return nil
	})
}
