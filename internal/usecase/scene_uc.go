package usecase

import (
	"context"
	"fmt"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/scene"
	"github.com/phenrril/tryon/internal/selection"
)

type SceneRequest struct {
	AvatarURL string          `json:"avatarUrl"`
	ItemIDs   []domain.ItemID `json:"itemIds"`
	Mode      string          `json:"mode"`
}

type SceneUC struct {
	Composer *scene.Composer
	Catalog  *CatalogUC
	Guard    *scene.Guard
}

// Compose builds the scene for the caller identified by key. Ids go through
// the selector rules, so a dress and a shirt in one request keep only the
// later one. When a newer request for the same key started meanwhile the
// result is discarded with ErrStaleGeneration.
func (uc *SceneUC) Compose(ctx context.Context, key string, req SceneRequest) (*scene.Manifest, error) {
	if req.AvatarURL == "" {
		return nil, domain.Invalid("avatarUrl required")
	}
	mode, ok := scene.ParseMode(req.Mode)
	if !ok {
		return nil, domain.Invalid(fmt.Sprintf("unknown mode %q", req.Mode))
	}
	items, missing, err := uc.Catalog.Resolve(ctx, req.ItemIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, domain.Invalid(fmt.Sprintf("unknown item %q", missing[0]))
	}
	sel := selection.New(items...)

	gen := uc.Guard.Begin(key)
	m, err := uc.Composer.Compose(ctx, req.AvatarURL, sel.Items(), mode)
	if err != nil {
		return nil, err
	}
	if !uc.Guard.Current(key, gen) {
		return nil, domain.ErrStaleGeneration
	}
	m.Generation = gen
	return m, nil
}

// Forget drops the generation counter kept for key.
func (uc *SceneUC) Forget(key string) {
	if key != "" {
		uc.Guard.Forget(key)
	}
}
