package versioning

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/egobogo/docsync/internal/docs"
	"github.com/egobogo/docsync/internal/errcode"
)

// ResolveBase picks the existing version that target should be forked from:
// the greatest existing version not above target. When target is below
// every existing version the greatest one is returned, and with nothing
// existing target is its own base. existing is not modified.
func ResolveBase(target *semver.Version, existing []*semver.Version) *semver.Version {
	if len(existing) == 0 {
		return target
	}

	ordered := make([]*semver.Version, len(existing), len(existing)+1)
	copy(ordered, existing)
	sort.Sort(semver.Collection(ordered))

	// nil marks the open upper bound after the greatest version.
	ordered = append(ordered, nil)

	for i := 0; i < len(ordered)-1; i++ {
		current, next := ordered[i], ordered[i+1]
		if target.Compare(current) >= 0 && (next == nil || target.LessThan(next)) {
			return current
		}
	}
	return ordered[len(ordered)-2]
}

// Ensure makes sure target exists in the project, creating it as a fork of
// its resolved base when missing. It reports whether a version was created.
// Remote versions that are not semantic versions are ignored.
func Ensure(ctx context.Context, store docs.VersionStore, target string, logger *slog.Logger) (*docs.Version, bool, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	targetVersion, err := semver.NewVersion(target)
	if err != nil {
		return nil, false, errcode.Errorf(errcode.InvalidConfig, "ensure version", "invalid target version %q: %w", target, err)
	}

	remote, err := store.ListVersions(ctx)
	if err != nil {
		return nil, false, errcode.New(errcode.Remote, "list versions", err)
	}

	var existing []*semver.Version
	byVersion := make(map[*semver.Version]docs.Version)
	for _, v := range remote {
		if v.Version == target {
			logger.InfoContext(ctx, "📃 Version already exists", "version", target)
			found := v
			return &found, false, nil
		}
		parsed, err := semver.NewVersion(v.Version)
		if err != nil {
			logger.WarnContext(ctx, "⚠️  Skipping version that is not semver", "version", v.Version, "error", err)
			continue
		}
		if parsed.Equal(targetVersion) {
			logger.InfoContext(ctx, "📃 Version already exists", "version", v.Version)
			found := v
			return &found, false, nil
		}
		existing = append(existing, parsed)
		byVersion[parsed] = v
	}

	if len(existing) == 0 {
		return nil, false, errcode.Errorf(errcode.NotFound, "ensure version", "no semantic versions to fork %s from", target)
	}

	base := byVersion[ResolveBase(targetVersion, existing)]
	logger.InfoContext(ctx, "📃 Creating version", "version", target, "from", base.Version)

	created, err := store.CreateVersion(ctx, docs.Version{
		Version:    target,
		ForkedFrom: base.Version,
		IsHidden:   base.IsHidden,
		IsBeta:     targetVersion.Prerelease() != "",
	})
	if err != nil {
		return nil, false, errcode.New(errcode.Remote, "create version "+target, err)
	}
	return created, true, nil
}
