package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStatsTests checks usage accounting.
func (suite *StoreTestSuite) RunStatsTests(t *testing.T) {
	store := suite.NewStore(t)

	empty, err := store.GetStorageStats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), empty.ContentCount)
	assert.Equal(t, uint64(0), empty.AverageSize)

	mustWriteContent(t, store, generateTestID("stats"), make([]byte, 100))
	mustWriteContent(t, store, generateTestID("stats"), make([]byte, 300))

	stats, err := store.GetStorageStats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.ContentCount)
	assert.Equal(t, uint64(400), stats.UsedSize)
	assert.Equal(t, uint64(200), stats.AverageSize)
}
