package scraper

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/tryon/internal/domain"
)

var ErrTooLarge = errors.New("image exceeds size limit")

// ImageScraper fetches the photograph a try-on request points at. It accepts
// data: URLs, direct image URLs, and HTML pages that advertise an image in
// their meta tags.
type ImageScraper struct {
	client   *http.Client
	maxBytes int64
}

func NewImageScraper(maxBytes int64) *ImageScraper {
	return &ImageScraper{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		maxBytes: maxBytes,
	}
}

func (s *ImageScraper) Fetch(ctx context.Context, raw string) (domain.Photo, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		return s.decodeDataURL(raw)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.Photo{}, fmt.Errorf("unsupported image url %q", raw)
	}
	photo, page, err := s.get(ctx, u)
	if err != nil {
		return domain.Photo{}, err
	}
	if page == nil {
		return photo, nil
	}

	// An HTML page: follow its advertised image once.
	imgURL, ok := pageImage(page, u)
	if !ok {
		return domain.Photo{}, fmt.Errorf("no image found on page %s", u.Host)
	}
	log.Debug().Str("page", u.String()).Str("image", imgURL.String()).Msg("following page image")
	photo, page, err = s.get(ctx, imgURL)
	if err != nil {
		return domain.Photo{}, err
	}
	if page != nil {
		return domain.Photo{}, fmt.Errorf("page image %s is not an image", imgURL)
	}
	return photo, nil
}

// get returns either the photo or, for HTML responses, the parsed document.
func (s *ImageScraper) get(ctx context.Context, u *url.URL) (domain.Photo, *goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Photo{}, nil, err
	}
	req.Header.Set("Accept", "image/*,text/html;q=0.8,*/*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Photo{}, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Photo{}, nil, fmt.Errorf("status code: %d", resp.StatusCode)
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if ct == "text/html" || ct == "application/xhtml+xml" {
		doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2<<20))
		if err != nil {
			return domain.Photo{}, nil, err
		}
		return domain.Photo{}, doc, nil
	}

	body, err := s.readLimited(resp.Body)
	if err != nil {
		return domain.Photo{}, nil, err
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(body)
	}
	return domain.Photo{Filename: path.Base(u.Path), ContentType: ct, Data: body}, nil, nil
}

func (s *ImageScraper) readLimited(r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}

func (s *ImageScraper) decodeDataURL(raw string) (domain.Photo, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return domain.Photo{}, errors.New("malformed data url")
	}
	ct := "application/octet-stream"
	isB64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0 && part != "":
			ct = part
		case part == "base64":
			isB64 = true
		}
	}
	var data []byte
	if isB64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return domain.Photo{}, fmt.Errorf("data url: %w", err)
		}
		data = b
	} else {
		p, err := url.PathUnescape(payload)
		if err != nil {
			return domain.Photo{}, fmt.Errorf("data url: %w", err)
		}
		data = []byte(p)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return domain.Photo{}, ErrTooLarge
	}
	return domain.Photo{Filename: "image", ContentType: ct, Data: data}, nil
}

// pageImage picks og:image, then twitter:image, then the first absolute <img>.
func pageImage(doc *goquery.Document, base *url.URL) (*url.URL, bool) {
	var found string
	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
	} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			found = strings.TrimSpace(v)
			break
		}
	}
	if found == "" {
		doc.Find("img[src]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
			src, _ := sel.Attr("src")
			if strings.HasPrefix(src, "http") {
				found = src
				return false
			}
			return true
		})
	}
	if found == "" {
		return nil, false
	}
	ref, err := url.Parse(found)
	if err != nil {
		return nil, false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil, false
	}
	return abs, true
}
