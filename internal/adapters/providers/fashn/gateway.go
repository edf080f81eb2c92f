package fashn

import (
	"context"
	"time"

	"github.com/phenrril/tryon/internal/adapters/providers/remote"
	"github.com/phenrril/tryon/internal/domain"
)

const DefaultBaseURL = "https://api.fashn.ai"

type Gateway struct {
	c *remote.Client
}

func NewGateway(token, baseURL string) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gateway{c: remote.New("fashn", baseURL, token, 90*time.Second)}
}

type wireItem struct {
	ID       domain.ItemID   `json:"id"`
	ImageURL string          `json:"imageUrl"`
	Category domain.Category `json:"category"`
}

// ApplyClothing dresses the avatar and returns the resulting model URL.
func (g *Gateway) ApplyClothing(ctx context.Context, avatarURL string, items []domain.ClothingItem) (string, error) {
	wire := make([]wireItem, len(items))
	for i, it := range items {
		wire[i] = wireItem{ID: it.ID, ImageURL: it.ImageURL, Category: it.Category}
	}
	in := map[string]any{"avatarUrl": avatarURL, "clothingItems": wire}
	var out struct {
		ResultURL string `json:"resultUrl"`
	}
	if err := g.c.PostJSON(ctx, "try-on", "/v1/try-on", in, &out); err != nil {
		return "", err
	}
	if out.ResultURL == "" {
		return "", g.c.Incomplete("try-on", "resultUrl")
	}
	return out.ResultURL, nil
}

// Analyze returns whatever attributes the provider extracts from a garment
// image.
func (g *Gateway) Analyze(ctx context.Context, imageURL string) (map[string]any, error) {
	out := map[string]any{}
	if err := g.c.PostJSON(ctx, "analyze", "/v1/analyze", map[string]string{"imageUrl": imageURL}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) Recommend(ctx context.Context, preferences map[string]any) ([]domain.ClothingItem, error) {
	var out struct {
		Recommendations []domain.ClothingItem `json:"recommendations"`
	}
	if err := g.c.PostJSON(ctx, "recommend", "/v1/recommend", map[string]any{"preferences": preferences}, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}
