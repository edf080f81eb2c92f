package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phenrril/tryon/internal/domain"
)

// Storage keeps generated files under a single directory.
type Storage struct {
	root string
}

func New(root string) *Storage { return &Storage{root: root} }

func (s *Storage) Root() string { return s.root }

func (s *Storage) path(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "\x00") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Save writes data atomically and returns the stored name.
func (s *Storage) Save(ctx context.Context, name string, data []byte) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+name)), "/"), nil
}

func (s *Storage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return f, err
}
