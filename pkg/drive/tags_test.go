package drive

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tag, err := env.drive.CreateTag(ctx, TagSpec{Name: " Important ", Color: "#EA4335"})
	require.NoError(t, err)
	assert.Equal(t, "Important", tag.Name)
	assert.Equal(t, "#EA4335", tag.Color)

	_, err = env.drive.CreateTag(ctx, TagSpec{Name: "   "})
	assertCode(t, catalog.ErrValidation, err)

	_, err = env.drive.CreateTag(ctx, TagSpec{Name: "bad", Color: "not-a-color"})
	assertCode(t, catalog.ErrValidation, err)

	noColor, err := env.drive.CreateTag(ctx, TagSpec{Name: "plain"})
	require.NoError(t, err)
	assert.Empty(t, noColor.Color)

	tags, err := env.drive.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Important", tags[0].Name)
}

func TestUpdateTag(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tag := env.tag(t, "draft")

	updated, err := env.drive.UpdateTag(ctx, tag.ID, TagPatch{Color: Some("rgb(52,168,83)")})
	require.NoError(t, err)
	assert.Equal(t, "draft", updated.Name)
	assert.Equal(t, "rgb(52,168,83)", updated.Color)

	_, err = env.drive.UpdateTag(ctx, tag.ID, TagPatch{Name: Some("")})
	assertCode(t, catalog.ErrValidation, err)

	got, err := env.drive.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = env.drive.UpdateTag(ctx, "ghost", TagPatch{Name: Some("x")})
	assertCode(t, catalog.ErrNotFound, err)
}

func TestDeleteTag(t *testing.T) {
	ctx := context.Background()

	t.Run("CascadeDetach", func(t *testing.T) {
		env := newTestEnv(t)
		doomed := env.tag(t, "doomed")
		kept := env.tag(t, "kept")

		var docs []*catalog.Document
		for i := 0; i < 5; i++ {
			docs = append(docs, env.document(t, "d.pdf", 1, nil, doomed.ID, kept.ID))
		}
		untagged := env.document(t, "other.pdf", 1, nil)

		require.NoError(t, env.drive.DeleteTag(ctx, doomed.ID))

		for _, d := range docs {
			got, err := env.drive.GetDocument(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{kept.ID}, got.Tags)
			assert.Equal(t, d.Version+1, got.Version)
		}

		got, err := env.drive.GetDocument(ctx, untagged.ID)
		require.NoError(t, err)
		assert.Equal(t, untagged.Version, got.Version)

		_, err = env.drive.GetTag(ctx, doomed.ID)
		assertCode(t, catalog.ErrNotFound, err)

		tagged, err := env.drive.DocumentsByTag(ctx, doomed.ID)
		require.NoError(t, err)
		assert.Empty(t, tagged)
	})

	t.Run("UnknownIsNoop", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.drive.DeleteTag(ctx, "ghost"))
	})
}

func TestAddTagToDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tag := env.tag(t, "t")
	doc := env.document(t, "a.pdf", 1, nil)

	once, err := env.drive.AddTagToDocument(ctx, doc.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, once.Tags)

	twice, err := env.drive.AddTagToDocument(ctx, doc.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	_, err = env.drive.AddTagToDocument(ctx, "ghost", tag.ID)
	assertCode(t, catalog.ErrNotFound, err)

	_, err = env.drive.AddTagToDocument(ctx, doc.ID, "ghost")
	assertCode(t, catalog.ErrNotFound, err)

	tagged, err := env.drive.DocumentsByTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID}, documentIDs(tagged))
}

func TestRemoveTagFromDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.tag(t, "a")
	b := env.tag(t, "b")
	doc := env.document(t, "x.pdf", 1, nil, a.ID)

	t.Run("RoundTrip", func(t *testing.T) {
		_, err := env.drive.AddTagToDocument(ctx, doc.ID, b.ID)
		require.NoError(t, err)

		restored, err := env.drive.RemoveTagFromDocument(ctx, doc.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.Tags, restored.Tags)
	})

	t.Run("AbsentTagIsNoop", func(t *testing.T) {
		before, err := env.drive.GetDocument(ctx, doc.ID)
		require.NoError(t, err)

		after, err := env.drive.RemoveTagFromDocument(ctx, doc.ID, "never-attached")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("UnknownDocument", func(t *testing.T) {
		_, err := env.drive.RemoveTagFromDocument(ctx, "ghost", a.ID)
		assertCode(t, catalog.ErrNotFound, err)
	})
}
