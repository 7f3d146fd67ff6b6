package drive

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentNames(docs []*catalog.Document) []string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, Sort{Option: SortByName, Direction: SortAsc}, s)

	s, err = ParseSort("SIZE", "Desc")
	require.NoError(t, err)
	assert.Equal(t, Sort{Option: SortBySize, Direction: SortDesc}, s)

	_, err = ParseSort("color", "asc")
	assertCode(t, catalog.ErrValidation, err)

	_, err = ParseSort("name", "sideways")
	assertCode(t, catalog.ErrValidation, err)
}

func TestBrowse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	projects := env.folder(t, "Projects", nil)
	archive := env.folder(t, "archive", nil)
	env.folder(t, "Éclair", nil)
	nested := env.folder(t, "Project Notes", &projects.ID)

	big := env.document(t, "zeta.pdf", 3000, nil)
	small := env.document(t, "Alpha.pdf", 10, nil)
	medium := env.document(t, "beta project.pdf", 500, nil)
	env.document(t, "project plan.pdf", 42, &projects.ID)

	t.Run("NameAscendingUsesCollation", func(t *testing.T) {
		m, err := env.drive.Browse(ctx, ViewQuery{})
		require.NoError(t, err)
		assert.Empty(t, m.Path)
		// Collation ignores case and sorts É with E.
		assert.Equal(t, []string{"archive", "Éclair", "Projects"}, folderNames(m.Folders))
		assert.Equal(t, []string{"Alpha.pdf", "beta project.pdf", "zeta.pdf"}, documentNames(m.Documents))
	})

	t.Run("NameDescending", func(t *testing.T) {
		m, err := env.drive.Browse(ctx, ViewQuery{Sort: Sort{Option: SortByName, Direction: SortDesc}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Projects", "Éclair", "archive"}, folderNames(m.Folders))
		assert.Equal(t, []string{"zeta.pdf", "beta project.pdf", "Alpha.pdf"}, documentNames(m.Documents))
	})

	t.Run("Size", func(t *testing.T) {
		m, err := env.drive.Browse(ctx, ViewQuery{Sort: Sort{Option: SortBySize, Direction: SortAsc}})
		require.NoError(t, err)
		assert.Equal(t, []string{small.ID, medium.ID, big.ID}, documentIDs(m.Documents))
		// Folders have no size: they keep id order and stay first.
		assert.Len(t, m.Folders, 3)
		assert.Equal(t, projects.ID, m.Folders[0].ID)

		m, err = env.drive.Browse(ctx, ViewQuery{Sort: Sort{Option: SortBySize, Direction: SortDesc}})
		require.NoError(t, err)
		assert.Equal(t, []string{big.ID, medium.ID, small.ID}, documentIDs(m.Documents))
	})

	t.Run("DateFollowsUpdates", func(t *testing.T) {
		_, err := env.drive.SetStarred(ctx, big.ID, true)
		require.NoError(t, err)

		m, err := env.drive.Browse(ctx, ViewQuery{Sort: Sort{Option: SortByDate, Direction: SortDesc}})
		require.NoError(t, err)
		assert.Equal(t, big.ID, m.Documents[0].ID)

		m, err = env.drive.Browse(ctx, ViewQuery{Sort: Sort{Option: SortByDate, Direction: SortAsc}})
		require.NoError(t, err)
		assert.Equal(t, []string{small.ID, medium.ID, big.ID}, documentIDs(m.Documents))
		assert.Equal(t, []string{projects.ID, archive.ID}, folderNamesToIDs(m.Folders)[:2])
	})

	t.Run("FolderWithPath", func(t *testing.T) {
		m, err := env.drive.Browse(ctx, ViewQuery{FolderID: &projects.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Projects"}, folderNames(m.Path))
		assert.Equal(t, []string{nested.ID}, folderNamesToIDs(m.Folders))
		assert.Equal(t, []string{"project plan.pdf"}, documentNames(m.Documents))
	})

	t.Run("SearchSpansAllFolders", func(t *testing.T) {
		m, err := env.drive.Browse(ctx, ViewQuery{FolderID: &archive.ID, Search: "  PROJECT "})
		require.NoError(t, err)
		assert.Equal(t, []string{"archive"}, folderNames(m.Path))
		assert.Equal(t, []string{"Project Notes", "Projects"}, folderNames(m.Folders))
		assert.Equal(t, []string{"beta project.pdf", "project plan.pdf"}, documentNames(m.Documents))
	})

	t.Run("FoldersBeforeDocumentsUnderEverySort", func(t *testing.T) {
		for _, opt := range []SortOption{SortByName, SortByDate, SortBySize} {
			for _, dir := range []SortDirection{SortAsc, SortDesc} {
				m, err := env.drive.Browse(ctx, ViewQuery{Search: "p", Sort: Sort{Option: opt, Direction: dir}})
				require.NoError(t, err, "%s %s", opt, dir)
				assert.NotEmpty(t, m.Folders)
				assert.NotEmpty(t, m.Documents)
			}
		}
	})

	t.Run("InvalidSort", func(t *testing.T) {
		_, err := env.drive.Browse(ctx, ViewQuery{Sort: Sort{Option: "colour"}})
		assertCode(t, catalog.ErrValidation, err)
	})

	t.Run("UnknownFolder", func(t *testing.T) {
		_, err := env.drive.Browse(ctx, ViewQuery{FolderID: catalog.StringID("ghost")})
		assertCode(t, catalog.ErrNotFound, err)
	})
}

func folderNamesToIDs(folders []*catalog.Folder) []string {
	ids := make([]string, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}
	return ids
}

func TestBrowser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	b := env.drive.NewBrowser()

	docs := env.folder(t, "Docs", nil)
	env.document(t, "one.pdf", 1, nil)

	m, err := b.Model(ctx)
	require.NoError(t, err)
	assert.Len(t, m.Folders, 1)
	assert.Len(t, m.Documents, 1)

	// Cached until something changes.
	env.document(t, "two.pdf", 1, nil)
	cached, err := b.Model(ctx)
	require.NoError(t, err)
	assert.Same(t, m, cached)

	b.Refresh()
	m, err = b.Model(ctx)
	require.NoError(t, err)
	assert.Len(t, m.Documents, 2)

	b.Open(&docs.ID)
	m, err = b.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Docs"}, folderNames(m.Path))
	assert.Empty(t, m.Documents)
	assert.Equal(t, docs.ID, *b.Query().FolderID)

	b.Search("two")
	m, err = b.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"two.pdf"}, documentNames(m.Documents))

	require.NoError(t, b.SortBy(Sort{Option: SortBySize, Direction: SortDesc}))
	assert.Equal(t, Sort{Option: SortBySize, Direction: SortDesc}, b.Query().Sort)

	require.Error(t, b.SortBy(Sort{Option: "weight"}))
	assert.Equal(t, SortBySize, b.Query().Sort.Option)

	b.Search("")
	b.Open(nil)
	m, err = b.Model(ctx)
	require.NoError(t, err)
	assert.Len(t, m.Documents, 2)
}
