// Package render draws the 2D try-on preview: the user's photo with every
// garment overlay laid on top, encoded as WebP.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"path"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/imgformat"
	"github.com/phenrril/tryon/internal/placement"
)

type Compositor struct {
	assets domain.AssetResolver
}

func NewCompositor(assets domain.AssetResolver) *Compositor {
	return &Compositor{assets: assets}
}

// Compose scales base to display (its own size when display is zero) and
// draws each overlay centred on its position at natural size times scale,
// lowest zIndex first. Items whose overlay cannot be loaded are skipped.
func (c *Compositor) Compose(ctx context.Context, base image.Image, display image.Point, items []domain.PositionedItem) (*image.NRGBA, error) {
	if display.X <= 0 || display.Y <= 0 {
		display = base.Bounds().Size()
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, display.X, display.Y))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), base, base.Bounds(), draw.Src, nil)

	for _, p := range placement.Layers(items) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Item.OverlayURL == "" {
			continue
		}
		ov, err := c.loadOverlay(ctx, p.Item.OverlayURL)
		if err != nil {
			log.Warn().Err(err).Str("item", string(p.Item.ID)).Str("overlay", p.Item.OverlayURL).Msg("overlay skipped")
			continue
		}
		if dst, ok := overlayRect(ov.Bounds().Size(), p.Placement); ok {
			draw.CatmullRom.Scale(canvas, dst, ov, ov.Bounds(), draw.Over, nil)
		}
	}
	return canvas, nil
}

func (c *Compositor) loadOverlay(ctx context.Context, ref string) (image.Image, error) {
	rc, err := c.assets.OpenAsset(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var img image.Image
	if strings.EqualFold(path.Ext(ref), ".tga") {
		img, err = tga.Decode(rc)
	} else {
		img, _, err = imgformat.Decode(rc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode overlay: %w", err)
	}
	return img, nil
}

// overlayRect is the destination of an overlay of natural size sz.
func overlayRect(sz image.Point, pl domain.Placement) (image.Rectangle, bool) {
	w := float64(sz.X) * pl.Scale
	h := float64(sz.Y) * pl.Scale
	if w < 1 || h < 1 || math.IsNaN(w) || math.IsNaN(h) {
		return image.Rectangle{}, false
	}
	x0 := pl.Position.X - w/2
	y0 := pl.Position.Y - h/2
	r := image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x0+w)), int(math.Round(y0+h)))
	return r, !r.Empty()
}

// Decode reads a user photo (PNG, JPEG, GIF, BMP or WebP).
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := imgformat.Decode(r)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidImage, err)
	}
	return img, nil
}

func Encode(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}
