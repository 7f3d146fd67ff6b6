package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunUserTests(t *testing.T) {
	s := suite.store(t)

	update(t, s, func(tx catalog.Tx) error {
		require.NoError(t, tx.PutUser(&catalog.User{ID: "user-2", Name: "Bob", Email: "bob@example.com"}))
		require.NoError(t, tx.PutUser(&catalog.User{ID: "user-1", Name: "Alice", Email: "alice@example.com"}))
		return nil
	})

	view(t, s, func(tx catalog.Tx) error {
		users, err := tx.ListUsers()
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "user-1", users[0].ID)

		u, err := tx.GetUser("user-2")
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", u.Email)

		_, err = tx.GetUser("nobody")
		AssertErrorCode(t, catalog.ErrNotFound, err)
		return nil
	})
}
