package testing

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/stretchr/testify/require"
)

var idCounter atomic.Uint64

// generateTestID returns a unique ContentID for the test run.
func generateTestID(label string) content.ContentID {
	return content.ContentID(fmt.Sprintf("test-%s-%d", label, idCounter.Add(1)))
}

// AssertErrorIs checks that err wraps target.
func AssertErrorIs(t *testing.T, target, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, target), "expected %v, got %v", target, err)
}

func mustWriteContent(t *testing.T, store content.ContentStore, id content.ContentID, data []byte) {
	t.Helper()
	require.NoError(t, store.WriteContent(testContext(), id, data))
}

func mustReadContent(t *testing.T, store content.ContentStore, id content.ContentID) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), id)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return data
}
