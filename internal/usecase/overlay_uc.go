package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/placement"
	"github.com/phenrril/tryon/internal/pose"
	"github.com/phenrril/tryon/internal/render"
)

// OverlayRequest carries the photo, the garments and, optionally, the size
// the client displays the photo at. A zero Display means natural size.
type OverlayRequest struct {
	Photo   domain.Photo
	Items   []domain.ClothingItem
	Display domain.Size
	UserID  string
}

type OverlayResult struct {
	ResultURL string                  `json:"resultUrl"`
	Landmarks domain.BodyLandmarks    `json:"landmarks"`
	Items     []domain.PositionedItem `json:"items"`
}

// DefaultMaxPixels bounds both the decoded photo and the preview canvas.
const DefaultMaxPixels = 40_000_000

type OverlayUC struct {
	Estimator  pose.Estimator
	Engine     *placement.Engine
	Compositor *render.Compositor
	Storage    domain.FileStorage
	Catalog    *CatalogUC
	// PublicBaseURL prefixes the stored preview path.
	PublicBaseURL string
	// MaxPixels caps width*height of the photo and of the display size;
	// zero means DefaultMaxPixels.
	MaxPixels int64
	Now       func() time.Time
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Overlay estimates landmarks from the photo, places every garment in the
// displayed space and stores the composed preview.
func (uc *OverlayUC) Overlay(ctx context.Context, req OverlayRequest) (*OverlayResult, error) {
	if len(req.Photo.Data) == 0 {
		return nil, domain.Invalid("No image file provided")
	}
	if len(req.Items) == 0 {
		return nil, domain.Invalid("No clothing items selected")
	}
	if err := uc.checkDisplay(req.Display); err != nil {
		return nil, err
	}
	info, err := pose.InspectBytes(req.Photo.Data)
	if err != nil {
		return nil, err
	}
	if int64(info.Width)*int64(info.Height) > uc.maxPixels() {
		return nil, domain.Invalid("Image dimensions too large")
	}
	landmarks, err := uc.Estimator.Estimate(ctx, info)
	if err != nil {
		return nil, err
	}

	items := req.Items
	if uc.Catalog != nil {
		items = uc.Catalog.Complete(ctx, items)
	}
	natural := domain.Size{Width: float64(info.Width), Height: float64(info.Height)}
	display := req.Display
	if display.Width <= 0 || display.Height <= 0 {
		display = natural
	}
	positioned := uc.Engine.PlaceDisplayed(landmarks, natural, display, items)

	base, err := render.Decode(bytes.NewReader(req.Photo.Data))
	if err != nil {
		return nil, err
	}
	canvas, err := uc.Compositor.Compose(ctx, base, image.Pt(int(math.Round(display.Width)), int(math.Round(display.Height))), positioned)
	if err != nil {
		return nil, fmt.Errorf("compose preview: %w", err)
	}
	var buf bytes.Buffer
	if err := render.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}

	user := unsafeName.ReplaceAllString(req.UserID, "")
	if user == "" {
		user = "anonymous"
	}
	name, err := uc.Storage.Save(ctx, fmt.Sprintf("overlay_%s_%d.webp", user, uc.now().UnixMilli()), buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("store preview: %w", err)
	}
	return &OverlayResult{
		ResultURL: strings.TrimRight(uc.PublicBaseURL, "/") + "/processed-images/" + name,
		Landmarks: landmarks,
		Items:     positioned,
	}, nil
}

// checkDisplay rejects sizes that cannot be rendered. A zero or partly zero
// size is accepted and means natural size.
func (uc *OverlayUC) checkDisplay(d domain.Size) error {
	for _, v := range []float64{d.Width, d.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return domain.Invalid("Invalid display size")
		}
	}
	if d.Width == 0 || d.Height == 0 {
		return nil
	}
	if math.Round(d.Width) < 1 || math.Round(d.Height) < 1 {
		return domain.Invalid("Invalid display size")
	}
	if d.Width*d.Height > float64(uc.maxPixels()) {
		return domain.Invalid("Display size too large")
	}
	return nil
}

func (uc *OverlayUC) maxPixels() int64 {
	if uc.MaxPixels > 0 {
		return uc.MaxPixels
	}
	return DefaultMaxPixels
}

func (uc *OverlayUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}
