package usecase

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phenrril/tryon/internal/domain"
)

type SizingUC struct {
	Sizer domain.SizeEstimator
	// Concurrency bounds RecommendEach; zero means 4.
	Concurrency int
}

func (uc *SizingUC) Measure(ctx context.Context, photo domain.Photo) (*domain.BodyMeasurements, error) {
	if len(photo.Data) == 0 {
		return nil, domain.Invalid("No image file provided")
	}
	return uc.Sizer.EstimateMeasurements(ctx, photo)
}

// Recommend asks the provider for every product in one batch call.
func (uc *SizingUC) Recommend(ctx context.Context, m domain.BodyMeasurements, productIDs []string) (map[string]domain.SizeRecommendation, error) {
	ids := cleanIDs(productIDs)
	if len(ids) == 0 {
		return nil, domain.Invalid("productIds required")
	}
	return uc.Sizer.RecommendBatch(ctx, m, ids)
}

// RecommendEach issues one request per product concurrently. The first
// failure cancels the rest.
func (uc *SizingUC) RecommendEach(ctx context.Context, m domain.BodyMeasurements, productIDs []string) (map[string]domain.SizeRecommendation, error) {
	ids := cleanIDs(productIDs)
	out := make(map[string]domain.SizeRecommendation, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := uc.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			rec, err := uc.Sizer.Recommend(gctx, m, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = *rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func cleanIDs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
