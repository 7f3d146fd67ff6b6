package testing

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// NewFolder builds a folder created n minutes after a fixed epoch.
func NewFolder(id, name string, parentID *string, n int) *catalog.Folder {
	at := epoch.Add(time.Duration(n) * time.Minute)
	return &catalog.Folder{
		ID:        id,
		Name:      name,
		ParentID:  parentID,
		CreatedAt: at,
		UpdatedAt: at,
		CreatedBy: "user-1",
		Access:    []catalog.AccessEntry{{UserID: "user-1", Permission: catalog.PermissionOwner}},
		Version:   1,
	}
}

// NewDocument builds a document created n minutes after a fixed epoch.
func NewDocument(id, name string, folderID *string, n int, tags ...string) *catalog.Document {
	at := epoch.Add(time.Duration(n) * time.Minute)
	return &catalog.Document{
		ID:        id,
		Name:      name,
		Type:      catalog.FileTypePDF,
		Size:      1024,
		FolderID:  folderID,
		CreatedAt: at,
		UpdatedAt: at,
		CreatedBy: "user-1",
		Tags:      tags,
		Access:    []catalog.AccessEntry{{UserID: "user-1", Permission: catalog.PermissionOwner}},
		Version:   1,
	}
}

// AssertErrorCode checks that err is a *catalog.StoreError with the expected code.
func AssertErrorCode(t *testing.T, expected catalog.ErrorCode, err error, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	code, ok := catalog.CodeOf(err)
	require.True(t, ok, "expected *catalog.StoreError, got %T: %v", err, err)
	require.Equal(t, expected, code, msgAndArgs...)
}

func update(t *testing.T, s catalog.Store, fn func(tx catalog.Tx) error) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), fn))
}

func view(t *testing.T, s catalog.Store, fn func(tx catalog.Tx) error) {
	t.Helper()
	require.NoError(t, s.View(context.Background(), fn))
}

func folderIDs(folders []*catalog.Folder) []string {
	ids := make([]string, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}
	return ids
}

func documentIDs(docs []*catalog.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}
