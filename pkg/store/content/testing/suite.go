package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/content"
)

// StoreTestSuite is a test suite for ContentStore implementations. It tests
// the interface contract, making it reusable across memory, filesystem and
// S3 backends.
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.ContentStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) content.ContentStore
}

// Run executes all tests in the suite. GC tests are skipped for stores that
// do not implement content.GarbageCollectableStore.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("Statistics", suite.RunStatsTests)
	t.Run("GarbageCollection", suite.RunGCTests)
}

func testContext() context.Context {
	return context.Background()
}
