package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phenrril/tryon/internal/domain"
)

type CatalogUC struct {
	Items domain.CatalogRepo
}

// List filters by category when one is given. Aliases such as "tops" are
// accepted; an unknown category is an error.
func (uc *CatalogUC) List(ctx context.Context, category string) ([]domain.ClothingItem, error) {
	var f domain.CatalogFilter
	if strings.TrimSpace(category) != "" {
		c, ok := domain.ParseCategory(category)
		if !ok {
			return nil, domain.Invalid(fmt.Sprintf("unknown category %q", category))
		}
		f.Category = c
	}
	return uc.Items.List(ctx, f)
}

func (uc *CatalogUC) Get(ctx context.Context, id domain.ItemID) (*domain.ClothingItem, error) {
	if id == "" {
		return nil, errors.New("empty item id")
	}
	return uc.Items.FindByID(ctx, id)
}

// Resolve looks up every id in order. Missing ids are returned separately so
// callers can decide whether that is fatal.
func (uc *CatalogUC) Resolve(ctx context.Context, ids []domain.ItemID) ([]domain.ClothingItem, []domain.ItemID, error) {
	items := make([]domain.ClothingItem, 0, len(ids))
	var missing []domain.ItemID
	for _, id := range ids {
		it, err := uc.Items.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		items = append(items, *it)
	}
	return items, missing, nil
}

// Complete fills in fields the client left out (category, overlay, model)
// from the catalog entry with the same id. Items the catalog does not know
// are passed through unchanged.
func (uc *CatalogUC) Complete(ctx context.Context, items []domain.ClothingItem) []domain.ClothingItem {
	out := make([]domain.ClothingItem, len(items))
	for i, it := range items {
		out[i] = it
		known, err := uc.Items.FindByID(ctx, it.ID)
		if err != nil {
			continue
		}
		if it.Category == "" {
			out[i].Category = known.Category
		}
		if it.OverlayURL == "" {
			out[i].OverlayURL = known.OverlayURL
		}
		if it.ModelURL == "" {
			out[i].ModelURL = known.ModelURL
		}
		if it.ImageURL == "" {
			out[i].ImageURL = known.ImageURL
		}
		if it.Name == "" {
			out[i].Name = known.Name
		}
	}
	return out
}
