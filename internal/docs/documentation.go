package docs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// DocumentStore defines the operations a sync run needs from the hosted
// documentation platform. Implementations are bound to one project version.
type DocumentStore interface {
	// GetCategory resolves a category by slug.
	GetCategory(ctx context.Context, slug string) (*Category, error)

	// GetCategoryDocs returns the top-level documents of a category, each with its children.
	GetCategoryDocs(ctx context.Context, slug string) ([]SlimDoc, error)

	// GetDoc reads a single document. Only used to check whether a slug exists.
	GetDoc(ctx context.Context, slug string) (*Doc, error)

	// CreateDoc creates a document from payload. The platform does not
	// reject a slug that already exists.
	CreateDoc(ctx context.Context, payload Payload) (*Doc, error)

	// UpdateDoc replaces the document at slug with payload.
	UpdateDoc(ctx context.Context, slug string, payload Payload) (*Doc, error)

	// DeleteDoc deletes the document at slug. A document with children must
	// have them deleted first.
	DeleteDoc(ctx context.Context, slug string) error
}

// VersionStore lists and forks project versions.
type VersionStore interface {
	ListVersions(ctx context.Context) ([]Version, error)
	// CreateVersion creates v, copying content from v.ForkedFrom.
	CreateVersion(ctx context.Context, v Version) (*Version, error)
}

// SlimDoc is the lightweight document descriptor returned when listing a category.
type SlimDoc struct {
	Title    string    `json:"title"`
	ID       string    `json:"_id"`
	Slug     string    `json:"slug"`
	Order    int       `json:"order"`
	Hidden   bool      `json:"hidden"`
	Children []SlimDoc `json:"children"`
}

// Category is a remote grouping of documents.
type Category struct {
	ID        string `json:"_id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Reference bool   `json:"reference"`
	IsAPI     bool   `json:"isAPI"`
	Project   string `json:"project"`
	Version   string `json:"version"`
}

// Doc is the full remote document. Fields other than the ones a payload sets
// are owned by the platform and only ever read.
type Doc struct {
	SlimDoc
	Body       string `json:"body"`
	Category   string `json:"category"`
	ParentDoc  string `json:"parentDoc,omitempty"`
	Excerpt    string `json:"excerpt"`
	Type       string `json:"type"`
	Deprecated bool   `json:"deprecated"`
	Project    string `json:"project"`
	Version    string `json:"version"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Metadata   struct {
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Image       []interface{} `json:"image"`
	} `json:"metadata"`
}

// Version is a documentation version of the project.
type Version struct {
	Version      string `json:"version"`
	Codename     string `json:"codename,omitempty"`
	IsStable     bool   `json:"is_stable"`
	IsBeta       bool   `json:"is_beta"`
	IsHidden     bool   `json:"is_hidden"`
	IsDeprecated bool   `json:"is_deprecated"`
	ForkedFrom   string `json:"from,omitempty"`
}

// Payload is the JSON object sent on create and update.
type Payload map[string]interface{}

// Slug returns the payload's slug field, or "" when absent.
func (p Payload) Slug() string {
	s, _ := p["slug"].(string)
	return s
}

// APIError is returned for every non-success response from the platform.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed, status: %d, body: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
