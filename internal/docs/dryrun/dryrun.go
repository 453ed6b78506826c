// Package dryrun wraps a document store so that reads reach the platform
// while writes are only logged.
package dryrun

import (
	"context"
	"log/slog"

	"github.com/egobogo/docsync/internal/docs"
)

// Store forwards reads to the wrapped store and turns writes into log lines.
type Store struct {
	next   docs.DocumentStore
	logger *slog.Logger
}

// Wrap returns a dry-run view of next. A nil logger uses slog.Default().
func Wrap(next docs.DocumentStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{next: next, logger: logger}
}

// GetCategory implements docs.DocumentStore.
func (s *Store) GetCategory(ctx context.Context, slug string) (*docs.Category, error) {
	return s.next.GetCategory(ctx, slug)
}

// GetCategoryDocs implements docs.DocumentStore.
func (s *Store) GetCategoryDocs(ctx context.Context, slug string) ([]docs.SlimDoc, error) {
	return s.next.GetCategoryDocs(ctx, slug)
}

// GetDoc implements docs.DocumentStore.
func (s *Store) GetDoc(ctx context.Context, slug string) (*docs.Doc, error) {
	return s.next.GetDoc(ctx, slug)
}

// CreateDoc logs the payload and returns it as the created document.
func (s *Store) CreateDoc(ctx context.Context, payload docs.Payload) (*docs.Doc, error) {
	s.logger.InfoContext(ctx, "🧪 dry run: would create doc", "slug", payload.Slug(), "title", payload["title"])
	return payloadDoc(payload), nil
}

// UpdateDoc logs the payload and returns it as the updated document.
func (s *Store) UpdateDoc(ctx context.Context, slug string, payload docs.Payload) (*docs.Doc, error) {
	s.logger.InfoContext(ctx, "🧪 dry run: would update doc", "slug", slug, "title", payload["title"])
	return payloadDoc(payload), nil
}

// DeleteDoc logs the slug and deletes nothing.
func (s *Store) DeleteDoc(ctx context.Context, slug string) error {
	s.logger.InfoContext(ctx, "🧪 dry run: would delete doc", "slug", slug)
	return nil
}

func payloadDoc(payload docs.Payload) *docs.Doc {
	d := &docs.Doc{}
	d.Slug = payload.Slug()
	d.Title, _ = payload["title"].(string)
	d.Body, _ = payload["body"].(string)
	d.Category, _ = payload["category"].(string)
	return d
}
