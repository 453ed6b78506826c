package files

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Source finds and reads local documentation files on a billy filesystem.
// Paths are slash separated and relative to the filesystem root.
type Source struct {
	fs billy.Filesystem
	// root is the absolute slash separated path fs is mounted at. Absolute
	// patterns are rebased against it.
	root    string
	ignored []string
}

// NewSource wraps fs. Absolute patterns are read as rooted at fs itself.
func NewSource(fs billy.Filesystem) *Source {
	return &Source{
		fs:      fs,
		root:    "/",
		ignored: []string{".git"},
	}
}

// NewOSSource creates a source rooted at dir on the local disk.
func NewOSSource(dir string) *Source {
	s := NewSource(osfs.New(dir))
	if abs, err := filepath.Abs(dir); err == nil {
		s.root = filepath.ToSlash(abs)
	}
	return s
}

// Glob returns every regular file matching pattern, sorted lexically.
// Patterns use doublestar syntax, so "docs/**/*.md" descends into
// subdirectories. No match is not an error.
func (s *Source) Glob(pattern string) ([]string, error) {
	pattern, err := s.relativePattern(pattern)
	if err != nil {
		return nil, err
	}

	base, _ := doublestar.SplitPattern(pattern)
	root := "/"
	if base != "." {
		root = path.Join("/", base)
	}

	var matches []string
	err = util.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			for _, ign := range s.ignored {
				if info.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand glob %q: %w", pattern, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// relativePattern rewrites pattern relative to the source root. Absolute
// patterns and patterns using ".." must still point inside the root.
func (s *Source) relativePattern(pattern string) (string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("invalid glob pattern %q", pattern)
	}

	base, rest := doublestar.SplitPattern(pattern)
	for _, segment := range strings.Split(rest, "/") {
		if segment == ".." {
			return "", fmt.Errorf("glob pattern %q uses .. after a wildcard", pattern)
		}
	}

	switch cleaned := path.Clean(base); {
	case path.IsAbs(base):
		base = cleaned
	case s.root == "/" && (cleaned == ".." || strings.HasPrefix(cleaned, "../")):
		return "", fmt.Errorf("glob pattern %q points outside the filesystem root", pattern)
	default:
		base = path.Join(s.root, base)
	}
	rel, ok := within(s.root, base)
	if !ok {
		return "", fmt.Errorf("glob pattern %q points outside %s", pattern, s.root)
	}
	if rel == "" {
		return rest, nil
	}
	if rest == "" {
		return rel, nil
	}
	return rel + "/" + rest, nil
}

// within returns target relative to root when target is root or below it.
func within(root, target string) (string, bool) {
	if root == "/" {
		return strings.TrimPrefix(target, "/"), true
	}
	if target == root {
		return "", true
	}
	if strings.HasPrefix(target, root+"/") {
		return target[len(root)+1:], true
	}
	return "", false
}

// ReadFile returns the contents of a file found by Glob as text.
func (s *Source) ReadFile(name string) (string, error) {
	data, err := util.ReadFile(s.fs, path.Join("/", filepath.ToSlash(name)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
