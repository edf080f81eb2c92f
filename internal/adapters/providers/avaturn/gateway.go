package avaturn

import (
	"context"
	"net/url"
	"time"

	"github.com/phenrril/tryon/internal/adapters/providers/remote"
	"github.com/phenrril/tryon/internal/domain"
)

const DefaultBaseURL = "https://api.avaturn.me"

type Gateway struct {
	c *remote.Client
}

func NewGateway(token, baseURL string) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gateway{c: remote.New("avaturn", baseURL, token, 60*time.Second)}
}

type generateResp struct {
	AvatarURL string `json:"avatarUrl"`
	AvatarID  string `json:"avatarId"`
	ID        string `json:"id"`
}

// Generate uploads the photo and returns the generated avatar.
func (g *Gateway) Generate(ctx context.Context, req domain.AvatarRequest) (*domain.Avatar, error) {
	var out generateResp
	fields := map[string]string{"gender": req.Gender}
	if err := g.c.PostMultipart(ctx, "generate", "/v1/generate", req.Photo, fields, &out); err != nil {
		return nil, err
	}
	if out.AvatarURL == "" {
		return nil, g.c.Incomplete("generate", "avatarUrl")
	}
	id := out.AvatarID
	if id == "" {
		id = out.ID
	}
	return &domain.Avatar{ID: id, URL: out.AvatarURL}, nil
}

type Status struct {
	Status    string `json:"status"`
	Progress  int    `json:"progress,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (g *Gateway) Status(ctx context.Context, jobID string) (*Status, error) {
	var out Status
	if err := g.c.GetJSON(ctx, "status", "/v1/status/"+url.PathEscape(jobID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Customize applies body or face adjustments and returns the new avatar URL.
func (g *Gateway) Customize(ctx context.Context, avatarURL string, customizations map[string]any) (string, error) {
	in := map[string]any{"avatarUrl": avatarURL, "customizations": customizations}
	var out struct {
		AvatarURL string `json:"avatarUrl"`
	}
	if err := g.c.PostJSON(ctx, "customize", "/v1/customize", in, &out); err != nil {
		return "", err
	}
	if out.AvatarURL == "" {
		return "", g.c.Incomplete("customize", "avatarUrl")
	}
	return out.AvatarURL, nil
}
