package inmemory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/egobogo/docsync/internal/docs"
)

// Op names a store operation in the call log.
type Op string

const (
	OpGetCategory     Op = "getCategory"
	OpGetCategoryDocs Op = "getCategoryDocs"
	OpGetDoc          Op = "getDoc"
	OpCreateDoc       Op = "createDoc"
	OpUpdateDoc       Op = "updateDoc"
	OpDeleteDoc       Op = "deleteDoc"
	OpListVersions    Op = "listVersions"
	OpCreateVersion   Op = "createVersion"
)

// Call is one recorded store invocation.
type Call struct {
	Op      Op
	Slug    string
	Payload docs.Payload
}

// Store is an in-memory implementation of docs.DocumentStore and docs.VersionStore.
// It mimics the platform closely enough to catch ordering mistakes: a
// document cannot be deleted while it still has children, and create on an
// existing slug overwrites it.
type Store struct {
	mu         sync.Mutex
	categories map[string]docs.Category
	docs       map[string]*docs.Doc
	versions   []docs.Version
	calls      []Call
	failures   map[string]error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		categories: make(map[string]docs.Category),
		docs:       make(map[string]*docs.Doc),
		failures:   make(map[string]error),
	}
}

// AddCategory registers a category. An empty ID gets a generated one.
func (s *Store) AddCategory(c docs.Category) docs.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.categories[c.Slug] = c
	return c
}

// AddDoc registers a document under a category, optionally under a parent document slug.
func (s *Store) AddDoc(categorySlug, parentSlug string, d docs.SlimDoc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	doc := &docs.Doc{SlimDoc: docs.SlimDoc{ID: d.ID, Slug: d.Slug, Title: d.Title, Order: d.Order, Hidden: d.Hidden}}
	doc.Category = s.categories[categorySlug].ID
	if parent, ok := s.docs[parentSlug]; ok && parentSlug != "" {
		doc.ParentDoc = parent.ID
	}
	s.docs[d.Slug] = doc
}

// AddVersion registers a project version.
func (s *Store) AddVersion(v docs.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, v)
}

// FailOn makes the next and every later call of op on slug return err.
// Use an empty slug for operations that take none.
func (s *Store) FailOn(op Op, slug string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(op, slug)] = err
}

// Calls returns a copy of the call log in invocation order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsOf returns the recorded calls of one operation.
func (s *Store) CallsOf(op Op) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Doc returns a copy of the stored document with slug.
func (s *Store) Doc(slug string) (docs.Doc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[slug]
	if !ok {
		return docs.Doc{}, false
	}
	return *d, true
}

// GetCategory implements docs.DocumentStore.
func (s *Store) GetCategory(ctx context.Context, slug string) (*docs.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpGetCategory, slug, nil); err != nil {
		return nil, err
	}
	c, ok := s.categories[slug]
	if !ok {
		return nil, notFound(http.MethodGet, "/categories/"+slug)
	}
	return &c, nil
}

// GetCategoryDocs implements docs.DocumentStore. Documents are ordered by
// Order, then slug.
func (s *Store) GetCategoryDocs(ctx context.Context, slug string) ([]docs.SlimDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpGetCategoryDocs, slug, nil); err != nil {
		return nil, err
	}
	c, ok := s.categories[slug]
	if !ok {
		return nil, notFound(http.MethodGet, "/categories/"+slug+"/docs")
	}
	return s.childrenOf(c.ID, ""), nil
}

// childrenOf builds the SlimDoc tree below parentID within a category. Must hold mu.
func (s *Store) childrenOf(categoryID, parentID string) []docs.SlimDoc {
	var out []docs.SlimDoc
	for _, d := range s.docs {
		if d.Category != categoryID || d.ParentDoc != parentID {
			continue
		}
		slim := d.SlimDoc
		slim.Children = s.childrenOf(categoryID, d.ID)
		if slim.Children == nil {
			slim.Children = []docs.SlimDoc{}
		}
		out = append(out, slim)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// GetDoc implements docs.DocumentStore.
func (s *Store) GetDoc(ctx context.Context, slug string) (*docs.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpGetDoc, slug, nil); err != nil {
		return nil, err
	}
	d, ok := s.docs[slug]
	if !ok {
		return nil, notFound(http.MethodGet, "/docs/"+slug)
	}
	out := *d
	return &out, nil
}

// CreateDoc implements docs.DocumentStore. An existing slug is overwritten.
func (s *Store) CreateDoc(ctx context.Context, payload docs.Payload) (*docs.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := payload.Slug()
	if err := s.record(OpCreateDoc, slug, payload); err != nil {
		return nil, err
	}
	d, ok := s.docs[slug]
	if !ok {
		d = &docs.Doc{SlimDoc: docs.SlimDoc{ID: uuid.New().String(), Slug: slug}}
		s.docs[slug] = d
	}
	applyPayload(d, payload)
	out := *d
	return &out, nil
}

// UpdateDoc implements docs.DocumentStore.
func (s *Store) UpdateDoc(ctx context.Context, slug string, payload docs.Payload) (*docs.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpUpdateDoc, slug, payload); err != nil {
		return nil, err
	}
	d, ok := s.docs[slug]
	if !ok {
		return nil, notFound(http.MethodPut, "/docs/"+slug)
	}
	applyPayload(d, payload)
	out := *d
	return &out, nil
}

// DeleteDoc implements docs.DocumentStore. Deleting a document that still
// has children fails with 400.
func (s *Store) DeleteDoc(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpDeleteDoc, slug, nil); err != nil {
		return err
	}
	d, ok := s.docs[slug]
	if !ok {
		return notFound(http.MethodDelete, "/docs/"+slug)
	}
	for _, other := range s.docs {
		if other.ParentDoc == d.ID {
			return &docs.APIError{
				Method:     http.MethodDelete,
				Path:       "/docs/" + slug,
				StatusCode: http.StatusBadRequest,
				Body:       fmt.Sprintf(`{"error":"DOC_HAS_CHILDREN","child":%q}`, other.Slug),
			}
		}
	}
	delete(s.docs, slug)
	return nil
}

// ListVersions implements docs.VersionStore.
func (s *Store) ListVersions(ctx context.Context) ([]docs.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpListVersions, "", nil); err != nil {
		return nil, err
	}
	out := make([]docs.Version, len(s.versions))
	copy(out, s.versions)
	return out, nil
}

// CreateVersion implements docs.VersionStore.
func (s *Store) CreateVersion(ctx context.Context, v docs.Version) (*docs.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpCreateVersion, v.Version, nil); err != nil {
		return nil, err
	}
	for _, existing := range s.versions {
		if existing.Version == v.Version {
			return nil, &docs.APIError{
				Method:     http.MethodPost,
				Path:       "/version",
				StatusCode: http.StatusBadRequest,
				Body:       `{"error":"VERSION_DUPLICATE"}`,
			}
		}
	}
	s.versions = append(s.versions, v)
	return &v, nil
}

// record appends to the call log and returns the configured failure, if any. Must hold mu.
func (s *Store) record(op Op, slug string, payload docs.Payload) error {
	var cp docs.Payload
	if payload != nil {
		cp = make(docs.Payload, len(payload))
		for k, v := range payload {
			cp[k] = v
		}
	}
	s.calls = append(s.calls, Call{Op: op, Slug: slug, Payload: cp})
	return s.failures[failureKey(op, slug)]
}

func applyPayload(d *docs.Doc, payload docs.Payload) {
	if v, ok := payload["title"].(string); ok {
		d.Title = v
	}
	if v, ok := payload["body"].(string); ok {
		d.Body = v
	}
	if v, ok := payload["category"].(string); ok {
		d.Category = v
	}
	if v, ok := payload["parentDoc"].(string); ok {
		d.ParentDoc = v
	}
	if v, ok := payload["hidden"].(bool); ok {
		d.Hidden = v
	}
}

func failureKey(op Op, slug string) string {
	return string(op) + ":" + slug
}

func notFound(method, path string) error {
	return &docs.APIError{Method: method, Path: path, StatusCode: http.StatusNotFound, Body: `{"error":"NOT_FOUND"}`}
}
