// Package sync uploads a directory of markdown files into one category of a
// documentation platform.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"dario.cat/mergo"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/egobogo/docsync/internal/config"
	"github.com/egobogo/docsync/internal/docs"
	"github.com/egobogo/docsync/internal/errcode"
)

// Source finds and reads the local files to upload. files.Source implements it.
type Source interface {
	Glob(pattern string) ([]string, error)
	ReadFile(name string) (string, error)
}

// ChangeDetector lists files changed since a revision, relative to the same
// root the Source globs from. gitrepo.GitClient implements it.
type ChangeDetector interface {
	ChangedSince(ref string) ([]string, error)
}

// ErrTitleNotFound is returned by DeriveTitle when the pattern does not
// yield a non-empty title.
var ErrTitleNotFound = errors.New("title not found")

// Synchronizer runs sync requests against one document store.
type Synchronizer struct {
	store   docs.DocumentStore
	source  Source
	changes ChangeDetector
	logger  *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// WithChangeDetector enables Request.ChangedSince filtering.
func WithChangeDetector(c ChangeDetector) Option {
	return func(s *Synchronizer) {
		s.changes = c
	}
}

// New creates a Synchronizer.
func New(store docs.DocumentStore, source Source, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:  store,
		source: source,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Synchronize runs one request: file discovery, the optional clear, the
// category lookup and finally the per-file create or update. Discovery is
// local only, so a bad path fails before anything is deleted. The first
// failure cancels the remaining work and is returned.
func (s *Synchronizer) Synchronize(ctx context.Context, req *config.Request) error {
	logger := s.logger.With("run", uuid.NewString(), "category", req.CategorySlug)

	if req.ChangedSince != "" && s.changes == nil {
		return errcode.Errorf(errcode.InvalidConfig, "synchronize", "changedSince %q needs a git repository", req.ChangedSince)
	}

	files, err := s.discover(ctx, req, logger)
	if err != nil {
		return err
	}

	var parentDocID string
	if req.Clear {
		if parentDocID, err = s.clear(ctx, req, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "📃 Skipping clear", "clear", req.Clear, "parent", req.ParentSlug)
	}

	if len(files) == 0 {
		logger.WarnContext(ctx, "⚠️  No files found to upload", "glob", req.Path)
		return nil
	}

	logger.InfoContext(ctx, "📃 Attempting to get info for category")
	category, err := s.store.GetCategory(ctx, req.CategorySlug)
	if err != nil {
		return errcode.New(errcode.Remote, "get category "+req.CategorySlug, err)
	}

	logger.InfoContext(ctx, "📃 Attempting to upload docs", "count", len(files))
	g, gctx := errgroup.WithContext(ctx)
	if req.Concurrency > 0 {
		g.SetLimit(req.Concurrency)
	}
	for _, file := range files {
		g.Go(func() error {
			return s.syncFile(gctx, req, file, category.ID, parentDocID, logger.With("file", file))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "📃 Upload complete", "count", len(files))
	return nil
}

// clear deletes the category's documents, or only the children of the
// parent document when ParentSlug is set. It returns the parent's ID in
// the latter case.
func (s *Synchronizer) clear(ctx context.Context, req *config.Request, logger *slog.Logger) (string, error) {
	logger.InfoContext(ctx, "📃 Attempting category enumeration...")
	top, err := s.store.GetCategoryDocs(ctx, req.CategorySlug)
	if err != nil {
		return "", errcode.New(errcode.Remote, "list docs of category "+req.CategorySlug, err)
	}

	var parentDocID string
	var children, parents []docs.SlimDoc
	if req.ParentSlug != "" {
		var parent *docs.SlimDoc
		for i := range top {
			if top[i].Slug == req.ParentSlug {
				parent = &top[i]
				break
			}
		}
		if parent == nil {
			return "", errcode.Errorf(errcode.NotFound, "clear",
				"❌ Unable to find parent doc %s under category %s", req.ParentSlug, req.CategorySlug)
		}
		parentDocID = parent.ID
		children = parent.Children
		logger.InfoContext(ctx, "📃 Limiting clear to parent doc", "parent", req.ParentSlug, "children", len(children))
	} else {
		for _, d := range top {
			children = append(children, d.Children...)
		}
		parents = top
		logger.InfoContext(ctx, "📃 Found category docs", "docs", len(top), "children", len(children))
	}

	// Children are normally one level deep. Anything deeper gets its own
	// tier so that a document is never deleted before its descendants.
	tiers := depthTiers(children)
	for i := len(tiers) - 1; i >= 0; i-- {
		if err := s.deleteAll(ctx, req, tiers[i]); err != nil {
			return "", err
		}
	}
	logger.InfoContext(ctx, "📃 Children destroyed")

	if req.ParentSlug != "" {
		logger.InfoContext(ctx, "📃 Parent doc cleared", "parent", req.ParentSlug)
		return parentDocID, nil
	}

	if err := s.deleteAll(ctx, req, parents); err != nil {
		return "", err
	}
	logger.InfoContext(ctx, "📃 Parents destroyed")
	logger.InfoContext(ctx, "📃 Category cleared")
	return "", nil
}

// depthTiers groups a forest by depth: tiers[0] holds the roots, tiers[1]
// their children and so on.
func depthTiers(roots []docs.SlimDoc) [][]docs.SlimDoc {
	var tiers [][]docs.SlimDoc
	for level := roots; len(level) > 0; {
		tiers = append(tiers, level)
		var next []docs.SlimDoc
		for _, d := range level {
			next = append(next, d.Children...)
		}
		level = next
	}
	return tiers
}

// deleteAll deletes every document of one tier concurrently and waits for all of them.
func (s *Synchronizer) deleteAll(ctx context.Context, req *config.Request, tier []docs.SlimDoc) error {
	g, gctx := errgroup.WithContext(ctx)
	if req.Concurrency > 0 {
		g.SetLimit(req.Concurrency)
	}
	for _, d := range tier {
		g.Go(func() error {
			if err := s.store.DeleteDoc(gctx, d.Slug); err != nil {
				return errcode.New(errcode.Remote, "delete doc "+d.Slug, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Synchronizer) discover(ctx context.Context, req *config.Request, logger *slog.Logger) ([]string, error) {
	files, err := s.source.Glob(req.Path)
	if err != nil {
		return nil, errcode.New(errcode.Content, "glob "+req.Path, err)
	}
	if req.ChangedSince == "" || len(files) == 0 {
		return files, nil
	}

	changed, err := s.changes.ChangedSince(req.ChangedSince)
	if err != nil {
		return nil, errcode.New(errcode.InvalidConfig, "changed since "+req.ChangedSince, err)
	}
	keep := make(map[string]bool, len(changed))
	for _, c := range changed {
		keep[c] = true
	}
	var filtered []string
	for _, f := range files {
		if keep[f] {
			filtered = append(filtered, f)
		}
	}
	logger.InfoContext(ctx, "📃 Limited upload to changed files", "since", req.ChangedSince, "matched", len(files), "changed", len(filtered))
	return filtered, nil
}

func (s *Synchronizer) syncFile(ctx context.Context, req *config.Request, file, categoryID, parentDocID string, logger *slog.Logger) error {
	body, err := s.source.ReadFile(file)
	if err != nil {
		return errcode.New(errcode.Content, "read "+file, err)
	}

	title, err := DeriveTitle(body, req.TitleRegex, req.TitlePrefix)
	if err != nil {
		return errcode.Errorf(errcode.Content, "derive title",
			"❌ %w for file '%s' using regex '%s'", err, file, req.TitleRegex)
	}
	slug := DeriveSlug(file)

	payload, err := BuildPayload(req.AdditionalJSON, title, slug, categoryID, body, parentDocID)
	if err != nil {
		return errcode.New(errcode.Content, "build payload for "+file, err)
	}

	return s.reconcile(ctx, req, slug, payload, logger)
}

// reconcile creates or updates one document according to the Create and
// Overwrite flags.
func (s *Synchronizer) reconcile(ctx context.Context, req *config.Request, slug string, payload docs.Payload, logger *slog.Logger) error {
	switch {
	case !req.Create && !req.Overwrite:
		logger.WarnContext(ctx, "⚠️  No documentation creation occurring, neither create nor overwrite are true")
		return nil
	case !req.Overwrite:
		return s.create(ctx, slug, payload, logger)
	case !req.Create:
		return s.update(ctx, slug, payload, logger)
	}

	// The platform accepts a create for a slug that already exists, so
	// existence has to be checked first.
	_, err := s.store.GetDoc(ctx, slug)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "📃 Found slug, skipping creation...", "slug", slug)
		return s.update(ctx, slug, payload, logger)
	case docs.IsNotFound(err):
		logger.InfoContext(ctx, "📃 Did not find slug, proceeding with creation...", "slug", slug)
		if err := s.create(ctx, slug, payload, logger); err != nil {
			logger.WarnContext(ctx, "⚠️  Creating doc failed", "slug", slug, "error", err)
			return s.update(ctx, slug, payload, logger)
		}
		return nil
	default:
		return errcode.New(errcode.Remote, "get doc "+slug, err)
	}
}

func (s *Synchronizer) create(ctx context.Context, slug string, payload docs.Payload, logger *slog.Logger) error {
	logger.InfoContext(ctx, "📃 Attempting to create document", "slug", slug)
	if _, err := s.store.CreateDoc(ctx, payload); err != nil {
		return errcode.New(errcode.Remote, "create doc "+slug, err)
	}
	return nil
}

func (s *Synchronizer) update(ctx context.Context, slug string, payload docs.Payload, logger *slog.Logger) error {
	logger.InfoContext(ctx, "📃 Attempting to update document", "slug", slug)
	if _, err := s.store.UpdateDoc(ctx, slug, payload); err != nil {
		return errcode.New(errcode.Remote, "update doc "+slug, err)
	}
	return nil
}

// DeriveTitle extracts the first capture group of re from content, trimmed,
// and prepends prefix and a space when prefix is set.
func DeriveTitle(content string, re *regexp.Regexp, prefix string) (string, error) {
	m := re.FindStringSubmatch(content)
	if len(m) < 2 {
		return "", ErrTitleNotFound
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return "", ErrTitleNotFound
	}
	if prefix != "" {
		return prefix + " " + title, nil
	}
	return title, nil
}

// DeriveSlug turns a file path into a document slug: the base name without
// extension, trimmed, lower-cased, with runs of dashes collapsed to one.
func DeriveSlug(file string) string {
	base := path.Base(file)
	if ext := path.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	slug := strings.ToLower(strings.TrimSpace(base))
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return slug
}

// BuildPayload copies additional into a fresh payload and sets the
// document fields on top, so title, slug, category, body and parentDoc
// always win over keys of the same name in additional. parentDoc is only
// set when parentDocID is not empty. additional is not modified.
func BuildPayload(additional map[string]interface{}, title, slug, categoryID, body, parentDocID string) (docs.Payload, error) {
	payload := docs.Payload{}
	if len(additional) > 0 {
		if err := mergo.Merge(&payload, docs.Payload(additional), mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge additionalJson: %w", err)
		}
	}
	payload["title"] = title
	payload["slug"] = slug
	payload["category"] = categoryID
	payload["body"] = body
	if parentDocID != "" {
		payload["parentDoc"] = parentDocID
	}
	return payload, nil
}
