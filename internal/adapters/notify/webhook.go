// Package notify posts try-on results to client callback URLs.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phenrril/tryon/internal/domain"
)

const SignatureHeader = "X-Tryon-Signature"

// Webhook makes exactly one POST per Notify call. Failures are returned to
// the caller and never retried.
type Webhook struct {
	secret     []byte
	httpClient *http.Client
}

func NewWebhook(secret string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{secret: []byte(secret), httpClient: &http.Client{Timeout: timeout}}
}

// Sign returns the hex HMAC-SHA256 of body. Empty when no secret is set.
func (w *Webhook) Sign(body []byte) string {
	if len(w.secret) == 0 {
		return ""
	}
	h := hmac.New(sha256.New, w.secret)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature produced by Sign.
func (w *Webhook) Verify(body []byte, sig string) bool {
	want := w.Sign(body)
	return want != "" && hmac.Equal([]byte(want), []byte(strings.ToLower(sig)))
}

func (w *Webhook) Notify(ctx context.Context, callbackURL string, res domain.TryOnResult) error {
	if callbackURL == "" {
		return errors.New("empty callback url")
	}
	if !strings.HasPrefix(callbackURL, "http://") && !strings.HasPrefix(callbackURL, "https://") {
		return fmt.Errorf("callback url %q: unsupported scheme", callbackURL)
	}
	buf, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode callback payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if sig := w.Sign(buf); sig != "" {
		req.Header.Set(SignatureHeader, sig)
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback %s: %w", callbackURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("callback status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
