// Package remote is the HTTP plumbing shared by the provider gateways.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/phenrril/tryon/internal/domain"
)

const maxErrorBody = 4 << 10

type Client struct {
	provider   string
	baseURL    string
	httpClient *http.Client
}

// New returns a client for provider rooted at baseURL. A non-empty token is
// sent as a bearer credential on every request.
func New(provider, baseURL, token string, timeout time.Duration) *Client {
	base := &http.Client{Timeout: timeout}
	hc := base
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
		hc.Timeout = timeout
	}
	return &Client{provider: provider, baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

func (c *Client) Provider() string { return c.provider }

func (c *Client) fail(op string, status int, err error) error {
	return &domain.RemoteServiceError{Provider: c.provider, Op: op, Status: status, Cause: err}
}

func (c *Client) GetJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return c.fail(op, 0, err)
	}
	return c.do(op, req, out)
}

func (c *Client) PostJSON(ctx context.Context, op, path string, in, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return c.fail(op, 0, fmt.Errorf("encode payload: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return c.fail(op, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

// PostMultipart uploads photo under the "image" field along with any extra
// form fields.
func (c *Client) PostMultipart(ctx context.Context, op, path string, photo domain.Photo, fields map[string]string, out any) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	name := photo.Filename
	if name == "" {
		name = "image"
	}
	fw, err := mw.CreateFormFile("image", name)
	if err != nil {
		return c.fail(op, 0, err)
	}
	if _, err := fw.Write(photo.Data); err != nil {
		return c.fail(op, 0, err)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return c.fail(op, 0, err)
		}
	}
	if err := mw.Close(); err != nil {
		return c.fail(op, 0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return c.fail(op, 0, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(op, 0, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return c.fail(op, res.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(b))))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return c.fail(op, res.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// ErrIncomplete marks a 2xx response missing a required field.
var ErrIncomplete = errors.New("incomplete response")

func (c *Client) Incomplete(op, field string) error {
	return c.fail(op, 0, fmt.Errorf("%w: missing %s", ErrIncomplete, field))
}
