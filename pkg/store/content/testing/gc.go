package testing

import (
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGCTests executes all GarbageCollectableStore operation tests.
func (suite *StoreTestSuite) RunGCTests(t *testing.T) {
	t.Run("ListAllContent_Empty", suite.testListAllContentEmpty)
	t.Run("ListAllContent_Multiple", suite.testListAllContentMultiple)
	t.Run("DeleteBatch_Empty", suite.testDeleteBatchEmpty)
	t.Run("DeleteBatch_Multiple", suite.testDeleteBatchMultiple)
	t.Run("DeleteBatch_Idempotent", suite.testDeleteBatchIdempotent)
}

func (suite *StoreTestSuite) gcStore(t *testing.T) content.GarbageCollectableStore {
	t.Helper()
	gc, ok := suite.NewStore(t).(content.GarbageCollectableStore)
	if !ok {
		t.Skip("Store does not implement GarbageCollectableStore")
	}
	return gc
}

func (suite *StoreTestSuite) testListAllContentEmpty(t *testing.T) {
	gc := suite.gcStore(t)

	ids, err := gc.ListAllContent(testContext())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func (suite *StoreTestSuite) testListAllContentMultiple(t *testing.T) {
	gc := suite.gcStore(t)

	written := []content.ContentID{
		generateTestID("list"),
		generateTestID("list"),
		generateTestID("list"),
	}
	for _, id := range written {
		mustWriteContent(t, gc, id, []byte(id))
	}

	ids, err := gc.ListAllContent(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, written, ids)
}

func (suite *StoreTestSuite) testDeleteBatchEmpty(t *testing.T) {
	gc := suite.gcStore(t)

	failures, err := gc.DeleteBatch(testContext(), nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func (suite *StoreTestSuite) testDeleteBatchMultiple(t *testing.T) {
	gc := suite.gcStore(t)

	keep := generateTestID("keep")
	drop := []content.ContentID{generateTestID("drop"), generateTestID("drop")}
	mustWriteContent(t, gc, keep, []byte("keep"))
	for _, id := range drop {
		mustWriteContent(t, gc, id, []byte("drop"))
	}

	failures, err := gc.DeleteBatch(testContext(), drop)
	require.NoError(t, err)
	assert.Empty(t, failures)

	ids, err := gc.ListAllContent(testContext())
	require.NoError(t, err)
	assert.Equal(t, []content.ContentID{keep}, ids)
}

func (suite *StoreTestSuite) testDeleteBatchIdempotent(t *testing.T) {
	gc := suite.gcStore(t)

	failures, err := gc.DeleteBatch(testContext(), []content.ContentID{generateTestID("ghost")})
	require.NoError(t, err)
	assert.Empty(t, failures)
}
