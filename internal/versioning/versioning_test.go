package versioning

import (
	"context"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egobogo/docsync/internal/docs"
	"github.com/egobogo/docsync/internal/docs/inmemory"
	"github.com/egobogo/docsync/internal/errcode"
)

func versions(vs ...string) []*semver.Version {
	out := make([]*semver.Version, 0, len(vs))
	for _, v := range vs {
		out = append(out, semver.MustParse(v))
	}
	return out
}

func TestResolveBase(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		existing []string
		want     string
	}{
		{name: "self is base", target: "1.0.0", existing: nil, want: "1.0.0"},
		{name: "simple setup", target: "1.0.0", existing: []string{"0.5.0"}, want: "0.5.0"},
		{name: "complex setup", target: "1.0.0", existing: []string{"0.5.0", "0.2.5", "0.3.2"}, want: "0.5.0"},
		{name: "base in the middle", target: "1.0.0", existing: []string{"0.5.0", "1.2.5", "0.3.2"}, want: "0.5.0"},
		{name: "exact match", target: "1.2.5", existing: []string{"0.5.0", "1.2.5", "2.0.0"}, want: "1.2.5"},
		{name: "below every version", target: "0.1.0", existing: []string{"0.5.0", "1.2.5", "0.3.2"}, want: "1.2.5"},
		{name: "above every version", target: "3.0.0", existing: []string{"2.0.0", "1.0.0"}, want: "2.0.0"},
		{name: "prerelease sorts before release", target: "2.0.0-rc.1", existing: []string{"1.9.0", "2.0.0"}, want: "1.9.0"},
		{name: "release after its prerelease", target: "2.0.0", existing: []string{"2.0.0-beta.1", "1.0.0"}, want: "2.0.0-beta.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveBase(semver.MustParse(tt.target), versions(tt.existing...))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Original())
		})
	}
}

func TestResolveBase_DoesNotReorderInput(t *testing.T) {
	existing := versions("0.5.0", "1.2.5", "0.3.2")
	ResolveBase(semver.MustParse("1.0.0"), existing)

	assert.Equal(t, "0.5.0", existing[0].Original())
	assert.Equal(t, "1.2.5", existing[1].Original())
	assert.Equal(t, "0.3.2", existing[2].Original())
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing version from its base", func(t *testing.T) {
		store := inmemory.NewStore()
		store.AddVersion(docs.Version{Version: "0.5.0"})
		store.AddVersion(docs.Version{Version: "1.2.5"})
		store.AddVersion(docs.Version{Version: "latest"})

		v, created, err := Ensure(ctx, store, "1.0.0", nil)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "1.0.0", v.Version)
		assert.Equal(t, "0.5.0", v.ForkedFrom)
		assert.Len(t, store.CallsOf(inmemory.OpCreateVersion), 1)
	})

	t.Run("existing version is left alone", func(t *testing.T) {
		store := inmemory.NewStore()
		store.AddVersion(docs.Version{Version: "1.0"})

		v, created, err := Ensure(ctx, store, "1.0.0", nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "1.0", v.Version)
		assert.Empty(t, store.CallsOf(inmemory.OpCreateVersion))
	})

	t.Run("prerelease target is created as beta", func(t *testing.T) {
		store := inmemory.NewStore()
		store.AddVersion(docs.Version{Version: "1.0.0"})

		v, created, err := Ensure(ctx, store, "1.1.0-beta.1", nil)
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, v.IsBeta)
	})

	t.Run("invalid target", func(t *testing.T) {
		_, _, err := Ensure(ctx, inmemory.NewStore(), "not-a-version", nil)
		require.Error(t, err)
		assert.True(t, errcode.Has(err, errcode.InvalidConfig))
	})

	t.Run("nothing to fork from", func(t *testing.T) {
		_, _, err := Ensure(ctx, inmemory.NewStore(), "1.0.0", nil)
		require.Error(t, err)
		assert.True(t, errcode.Has(err, errcode.NotFound))
	})

	t.Run("remote failure", func(t *testing.T) {
		store := inmemory.NewStore()
		store.AddVersion(docs.Version{Version: "1.0.0"})
		store.FailOn(inmemory.OpCreateVersion, "2.0.0", &docs.APIError{StatusCode: 500})

		_, _, err := Ensure(ctx, store, "2.0.0", nil)
		require.Error(t, err)
		assert.True(t, errcode.Has(err, errcode.Remote))
	})
}
