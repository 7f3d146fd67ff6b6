package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes the read/write/delete contract tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("ReadContent_NotFound", suite.testReadContentNotFound)
	t.Run("WriteThenRead", suite.testWriteThenRead)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("EmptyContent", suite.testEmptyContent)
	t.Run("LargeContent", suite.testLargeContent)
	t.Run("GetContentSize", suite.testGetContentSize)
	t.Run("ContentExists", suite.testContentExists)
	t.Run("Delete", suite.testDelete)
	t.Run("Delete_NotFound", suite.testDeleteNotFound)
	t.Run("WriterDoesNotAlias", suite.testWriterDoesNotAlias)
}

func (suite *StoreTestSuite) testReadContentNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.ReadContent(testContext(), generateTestID("nonexistent"))
	AssertErrorIs(t, content.ErrContentNotFound, err)
}

func (suite *StoreTestSuite) testWriteThenRead(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("read")

	mustWriteContent(t, store, id, []byte("Hello, World!"))
	assert.Equal(t, []byte("Hello, World!"), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("overwrite")

	mustWriteContent(t, store, id, []byte("first version, longer"))
	mustWriteContent(t, store, id, []byte("second"))
	assert.Equal(t, []byte("second"), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testEmptyContent(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("empty")

	mustWriteContent(t, store, id, []byte{})
	assert.Empty(t, mustReadContent(t, store, id))

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), size)
}

func (suite *StoreTestSuite) testLargeContent(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("large")
	data := bytes.Repeat([]byte("0123456789abcdef"), 64*1024) // 1 MiB

	mustWriteContent(t, store, id, data)
	assert.Equal(t, data, mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testGetContentSize(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("size")

	_, err := store.GetContentSize(testContext(), id)
	AssertErrorIs(t, content.ErrContentNotFound, err)

	mustWriteContent(t, store, id, []byte("12345"))
	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)
}

func (suite *StoreTestSuite) testContentExists(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("exists")

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.False(t, exists)

	mustWriteContent(t, store, id, []byte("x"))
	exists, err = store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("delete")

	mustWriteContent(t, store, id, []byte("bye"))
	require.NoError(t, store.Delete(testContext(), id))

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testDeleteNotFound(t *testing.T) {
	store := suite.NewStore(t)
	assert.NoError(t, store.Delete(testContext(), generateTestID("never-written")))
}

func (suite *StoreTestSuite) testWriterDoesNotAlias(t *testing.T) {
	store := suite.NewStore(t)
	id := generateTestID("alias")

	data := []byte("original")
	mustWriteContent(t, store, id, data)
	copy(data, "mutated!")

	assert.Equal(t, []byte("original"), mustReadContent(t, store, id))
}
