package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egobogo/docsync/internal/docs"
)

func TestStore_CategoryTree(t *testing.T) {
	s := NewStore()
	cat := s.AddCategory(docs.Category{Slug: "guides"})
	s.AddDoc("guides", "", docs.SlimDoc{Slug: "b", Order: 2})
	s.AddDoc("guides", "", docs.SlimDoc{Slug: "a", Order: 1})
	s.AddDoc("guides", "a", docs.SlimDoc{Slug: "a-child"})

	tree, err := s.GetCategoryDocs(context.Background(), "guides")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "a", tree[0].Slug)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "a-child", tree[0].Children[0].Slug)
	assert.Empty(t, tree[1].Children)

	got, err := s.GetCategory(context.Background(), "guides")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)
}

func TestStore_DeleteRequiresChildlessDoc(t *testing.T) {
	s := NewStore()
	s.AddCategory(docs.Category{Slug: "guides"})
	s.AddDoc("guides", "", docs.SlimDoc{Slug: "parent"})
	s.AddDoc("guides", "parent", docs.SlimDoc{Slug: "child"})
	ctx := context.Background()

	err := s.DeleteDoc(ctx, "parent")
	require.Error(t, err)
	var apiErr *docs.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)

	require.NoError(t, s.DeleteDoc(ctx, "child"))
	require.NoError(t, s.DeleteDoc(ctx, "parent"))

	_, err = s.GetDoc(ctx, "parent")
	assert.True(t, docs.IsNotFound(err))
}

func TestStore_CreateUpsertsAndUpdateRequiresDoc(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.UpdateDoc(ctx, "x", docs.Payload{"title": "X"})
	assert.True(t, docs.IsNotFound(err))

	_, err = s.CreateDoc(ctx, docs.Payload{"slug": "x", "title": "First"})
	require.NoError(t, err)
	_, err = s.CreateDoc(ctx, docs.Payload{"slug": "x", "title": "Second"})
	require.NoError(t, err)

	d, ok := s.Doc("x")
	require.True(t, ok)
	assert.Equal(t, "Second", d.Title)
	assert.Len(t, s.CallsOf(OpCreateDoc), 2)
	assert.Len(t, s.CallsOf(OpUpdateDoc), 1)
}

func TestStore_FailOn(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")
	s.FailOn(OpCreateDoc, "x", boom)

	_, err := s.CreateDoc(context.Background(), docs.Payload{"slug": "x"})
	assert.ErrorIs(t, err, boom)
	_, ok := s.Doc("x")
	assert.False(t, ok)
}

func TestStore_Versions(t *testing.T) {
	s := NewStore()
	s.AddVersion(docs.Version{Version: "1.0.0"})
	ctx := context.Background()

	_, err := s.CreateVersion(ctx, docs.Version{Version: "1.0.0"})
	require.Error(t, err)

	_, err = s.CreateVersion(ctx, docs.Version{Version: "1.1.0", ForkedFrom: "1.0.0"})
	require.NoError(t, err)

	versions, err := s.ListVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}
