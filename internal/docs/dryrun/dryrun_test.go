package dryrun

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egobogo/docsync/internal/docs"
	"github.com/egobogo/docsync/internal/docs/inmemory"
)

func TestStore_WritesAreSkipped(t *testing.T) {
	backing := inmemory.NewStore()
	backing.AddCategory(docs.Category{ID: "cat-1", Slug: "guides"})
	backing.AddDoc("guides", "", docs.SlimDoc{Slug: "existing"})

	var buf bytes.Buffer
	s := Wrap(backing, slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	cat, err := s.GetCategory(ctx, "guides")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", cat.ID)

	doc, err := s.CreateDoc(ctx, docs.Payload{"slug": "new", "title": "New"})
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Slug)

	_, err = s.UpdateDoc(ctx, "existing", docs.Payload{"title": "Changed"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteDoc(ctx, "existing"))

	assert.Empty(t, backing.CallsOf(inmemory.OpCreateDoc))
	assert.Empty(t, backing.CallsOf(inmemory.OpUpdateDoc))
	assert.Empty(t, backing.CallsOf(inmemory.OpDeleteDoc))
	_, ok := backing.Doc("existing")
	assert.True(t, ok)

	assert.Contains(t, buf.String(), "would create doc")
	assert.Contains(t, buf.String(), "would delete doc")
}
