package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// StoreTestSuite is a test suite for catalog.Store implementations.
// It tests the interface contract, not implementation details, making it
// reusable across backends.
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) catalog.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Folders", suite.RunFolderTests)
	t.Run("Documents", suite.RunDocumentTests)
	t.Run("Tags", suite.RunTagTests)
	t.Run("Users", suite.RunUserTests)
	t.Run("Transactions", suite.RunTransactionTests)
	t.Run("Healthcheck", suite.RunHealthcheckTests)
}

func (suite *StoreTestSuite) store(t *testing.T) catalog.Store {
	t.Helper()
	s := suite.NewStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
