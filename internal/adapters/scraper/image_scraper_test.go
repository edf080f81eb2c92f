package scraper

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n0000")

func TestFetch_DataURL(t *testing.T) {
	s := NewImageScraper(1 << 20)
	p, err := s.Fetch(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngMagic))
	require.NoError(t, err)
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, pngMagic, p.Data)

	_, err = s.Fetch(context.Background(), "data:image/png;base64")
	assert.Error(t, err)
	_, err = s.Fetch(context.Background(), "data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestFetch_DirectAndPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngMagic)
		case "/profile":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><head><meta property="og:image" content="/me.png"></head><body></body></html>`))
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body>nothing</body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	s := NewImageScraper(1 << 20)

	p, err := s.Fetch(context.Background(), srv.URL+"/me.png")
	require.NoError(t, err)
	assert.Equal(t, "me.png", p.Filename)
	assert.Equal(t, "image/png", p.ContentType)

	p, err = s.Fetch(context.Background(), srv.URL+"/profile")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, p.Data)

	_, err = s.Fetch(context.Background(), srv.URL+"/empty")
	assert.Error(t, err)
	_, err = s.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestFetch_Limits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()
	s := NewImageScraper(16)

	_, err := s.Fetch(context.Background(), srv.URL+"/big.jpg")
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = s.Fetch(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte(strings.Repeat("y", 32))))
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = s.Fetch(context.Background(), "ftp://example.com/a.png")
	assert.Error(t, err)
}
