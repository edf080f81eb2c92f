package sizer

import (
	"context"
	"time"

	"github.com/phenrril/tryon/internal/adapters/providers/remote"
	"github.com/phenrril/tryon/internal/domain"
)

const DefaultBaseURL = "https://api.sizer.me"

type Gateway struct {
	c *remote.Client
}

func NewGateway(token, baseURL string) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gateway{c: remote.New("sizer", baseURL, token, 30*time.Second)}
}

func (g *Gateway) EstimateMeasurements(ctx context.Context, photo domain.Photo) (*domain.BodyMeasurements, error) {
	var out struct {
		Measurements *domain.BodyMeasurements `json:"measurements"`
	}
	if err := g.c.PostMultipart(ctx, "measurements", "/v1/measurements", photo, nil, &out); err != nil {
		return nil, err
	}
	if out.Measurements == nil {
		return nil, g.c.Incomplete("measurements", "measurements")
	}
	return out.Measurements, nil
}

func (g *Gateway) Recommend(ctx context.Context, m domain.BodyMeasurements, productID string) (*domain.SizeRecommendation, error) {
	in := map[string]any{"measurements": m, "productId": productID}
	var out struct {
		Recommendation *domain.SizeRecommendation `json:"recommendation"`
	}
	if err := g.c.PostJSON(ctx, "recommendations", "/v1/recommendations", in, &out); err != nil {
		return nil, err
	}
	if out.Recommendation == nil {
		return nil, g.c.Incomplete("recommendations", "recommendation")
	}
	return out.Recommendation, nil
}

func (g *Gateway) RecommendBatch(ctx context.Context, m domain.BodyMeasurements, productIDs []string) (map[string]domain.SizeRecommendation, error) {
	in := map[string]any{"measurements": m, "productIds": productIDs}
	var out struct {
		Recommendations map[string]domain.SizeRecommendation `json:"recommendations"`
	}
	if err := g.c.PostJSON(ctx, "batch-recommendations", "/v1/batch-recommendations", in, &out); err != nil {
		return nil, err
	}
	if out.Recommendations == nil {
		out.Recommendations = map[string]domain.SizeRecommendation{}
	}
	return out.Recommendations, nil
}
