package gitrepo

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"                 // go-git library
	"github.com/go-git/go-git/v5/plumbing"        // revisions
	"github.com/go-git/go-git/v5/plumbing/object" // trees and commit signatures
)

// GitClient answers which files a range of commits touched.
type GitClient struct {
	Repo *git.Repository
	// Prefix is the slash separated directory, relative to the worktree
	// root, that returned paths are made relative to. Empty means the root.
	Prefix string
}

// NewGitClient opens the repository containing dir, searching parent
// directories for .git, and scopes it to dir.
func NewGitClient(dir string) (*GitClient, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	client := &GitClient{Repo: repo}

	root, err := client.Root()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to scope %s to repository %s: %w", dir, root, err)
	}
	if rel != "." {
		client.Prefix = filepath.ToSlash(rel)
	}
	return client, nil
}

// NewGitClientFromRepository wraps an already open repository, e.g. one
// backed by in-memory storage.
func NewGitClientFromRepository(repo *git.Repository) *GitClient {
	return &GitClient{Repo: repo}
}

// Root returns the worktree root directory.
func (g *GitClient) Root() (string, error) {
	worktree, err := g.Repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// ChangedSince lists the files added or modified between ref and HEAD,
// sorted, relative to Prefix. Deleted files and files outside Prefix are
// left out.
func (g *GitClient) ChangedSince(ref string) ([]string, error) {
	fromTree, err := g.treeAt(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	headTree, err := g.treeAt(plumbing.Revision(plumbing.HEAD))
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(fromTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..HEAD: %w", ref, err)
	}

	var changed []string
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			continue
		}
		if g.Prefix != "" {
			if !strings.HasPrefix(name, g.Prefix+"/") {
				continue
			}
			name = strings.TrimPrefix(name, g.Prefix+"/")
		}
		changed = append(changed, name)
	}
	sort.Strings(changed)
	return changed, nil
}

func (g *GitClient) treeAt(rev plumbing.Revision) (*object.Tree, error) {
	hash, err := g.Repo.ResolveRevision(rev)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	commit, err := g.Repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", hash, err)
	}
	return tree, nil
}
