package blob

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

type fsStore struct {
	root string
}

// NewFS creates a store rooted at a local directory, for development and
// tests. Object names map to file paths relative to the root, always with
// forward slashes.
func NewFS(root string) (Store, error) {
	if root == "" {
		return nil, eris.New("blob: fs root is required")
	}
	return &fsStore{root: root}, nil
}

func (s *fsStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "blob: walk %q", s.root)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fsStore) Download(ctx context.Context, name string) ([]byte, error) {
	content, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read %q", name)
	}
	return content, nil
}

func (s *fsStore) Upload(ctx context.Context, name string, content []byte, contentType string) error {
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrapf(err, "blob: mkdir for %q", name)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return eris.Wrapf(err, "blob: write %q", name)
	}
	return nil
}

func (s *fsStore) Close() error { return nil }

func (s *fsStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}
