package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunTagTests(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutTag(&catalog.Tag{ID: "t2", Name: "urgent", Color: "#ef4444"}))
		require.NoError(t, tx.PutTag(&catalog.Tag{ID: "t1", Name: "finance", Color: "#22c55e"}))
		return nil
	})

	view(t, s, func(tx catalog.Tx) error {
		tags, err := tx.ListTags()
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "finance", tags[0].Name, "ordered by name")
		assert.Equal(t, "urgent", tags[1].Name)
		return nil
	})

	update(t, s, func(tx catalog.Tx) error {
		tag, err := tx.GetTag("t1")
		require.NoError(t, err)
		tag.Color = "#000000"
		return tx.PutTag(tag)
	})
	update(t, s, func(tx catalog.Tx) error { return tx.DeleteTag("t2") })

	view(t, s, func(tx catalog.Tx) error {
		tag, err := tx.GetTag("t1")
		require.NoError(t, err)
		assert.Equal(t, "#000000", tag.Color)

		_, err = tx.GetTag("t2")
		AssertErrorCode(t, catalog.ErrNotFound, err)
		return nil
	})
}
