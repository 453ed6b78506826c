package readme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/egobogo/docsync/internal/docs"
)

// DefaultBaseURL is the ReadMe v1 API root.
const DefaultBaseURL = "https://dash.readme.com/api/v1"

// ReadmeClient is a concrete implementation of docs.DocumentStore and
// docs.VersionStore backed by the ReadMe v1 REST API.
type ReadmeClient struct {
	APIKey     string // sent verbatim after "Basic "
	Version    string // project version every call is scoped to (x-readme-version)
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger // nil disables request logging
}

// NewReadmeClient creates a client scoped to the given project version.
func NewReadmeClient(apiKey, version string) *ReadmeClient {
	return &ReadmeClient{
		APIKey:     apiKey,
		Version:    version,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetCategory retrieves a category by slug.
func (rc *ReadmeClient) GetCategory(ctx context.Context, slug string) (*docs.Category, error) {
	var category docs.Category
	if err := rc.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(slug), nil, &category); err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", slug, err)
	}
	return &category, nil
}

// GetCategoryDocs lists the documents of a category. Top-level documents carry their children.
func (rc *ReadmeClient) GetCategoryDocs(ctx context.Context, slug string) ([]docs.SlimDoc, error) {
	var result []docs.SlimDoc
	if err := rc.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(slug)+"/docs", nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list docs of category %s: %w", slug, err)
	}
	return result, nil
}

// GetDoc retrieves a document by slug.
func (rc *ReadmeClient) GetDoc(ctx context.Context, slug string) (*docs.Doc, error) {
	var doc docs.Doc
	if err := rc.do(ctx, http.MethodGet, "/docs/"+url.PathEscape(slug), nil, &doc); err != nil {
		return nil, fmt.Errorf("failed to get doc %s: %w", slug, err)
	}
	return &doc, nil
}

// CreateDoc creates a document. The platform treats an existing slug as an
// upsert rather than a conflict.
func (rc *ReadmeClient) CreateDoc(ctx context.Context, payload docs.Payload) (*docs.Doc, error) {
	var doc docs.Doc
	if err := rc.do(ctx, http.MethodPost, "/docs", payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to create doc %s: %w", payload.Slug(), err)
	}
	return &doc, nil
}

// UpdateDoc replaces the fields of the document at slug with payload.
func (rc *ReadmeClient) UpdateDoc(ctx context.Context, slug string, payload docs.Payload) (*docs.Doc, error) {
	var doc docs.Doc
	if err := rc.do(ctx, http.MethodPut, "/docs/"+url.PathEscape(slug), payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to update doc %s: %w", slug, err)
	}
	return &doc, nil
}

// DeleteDoc removes a document. A document with children cannot be deleted
// until its children are gone.
func (rc *ReadmeClient) DeleteDoc(ctx context.Context, slug string) error {
	if err := rc.do(ctx, http.MethodDelete, "/docs/"+url.PathEscape(slug), nil, nil); err != nil {
		return fmt.Errorf("failed to delete doc %s: %w", slug, err)
	}
	return nil
}

// ListVersions returns every version of the project.
func (rc *ReadmeClient) ListVersions(ctx context.Context) ([]docs.Version, error) {
	var versions []docs.Version
	if err := rc.do(ctx, http.MethodGet, "/version", nil, &versions); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// CreateVersion forks v.ForkedFrom into a new version v.Version.
func (rc *ReadmeClient) CreateVersion(ctx context.Context, v docs.Version) (*docs.Version, error) {
	var created docs.Version
	if err := rc.do(ctx, http.MethodPost, "/version", v, &created); err != nil {
		return nil, fmt.Errorf("failed to create version %s: %w", v.Version, err)
	}
	return &created, nil
}

// do performs one API call. A nil body sends no payload, a nil out skips decoding.
func (rc *ReadmeClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Add("Authorization", "Basic "+rc.APIKey)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("x-readme-version", rc.Version)
	req.Header.Add("X-Request-Id", requestID)
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	if rc.Logger != nil {
		rc.Logger.DebugContext(ctx, "readme request", "method", method, "path", path, "request_id", requestID)
	}
	resp, err := rc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &docs.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
