// Package assets opens catalog references: site-relative paths are read from
// the asset directory, absolute http(s) URLs are downloaded.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phenrril/tryon/internal/domain"
)

type Resolver struct {
	root   string
	client *http.Client
}

func NewResolver(root string) *Resolver {
	return &Resolver{root: root, client: &http.Client{Timeout: 30 * time.Second}}
}

func (r *Resolver) OpenAsset(ctx context.Context, ref string) (io.ReadCloser, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return r.download(ctx, ref)
	}
	if r.root == "" {
		return nil, domain.ErrNotFound
	}
	p := filepath.Join(r.root, filepath.FromSlash(filepath.Clean("/"+ref)))
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return f, err
}

func (r *Resolver) download(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil, domain.ErrNotFound
	}
	if res.StatusCode >= 300 {
		res.Body.Close()
		return nil, fmt.Errorf("asset %s: status %d", u, res.StatusCode)
	}
	return res.Body, nil
}
