// Package scene builds the 3D try-on scene description: camera, lights, the
// avatar with its animation clip, and garment models attached to it.
package scene

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/phenrril/tryon/internal/domain"
)

type Vec3 [3]float64

type Camera struct {
	Position Vec3    `json:"position"`
	Target   Vec3    `json:"target"`
	FOV      float64 `json:"fov"`
}

type Light struct {
	Type      string  `json:"type"`
	Intensity float64 `json:"intensity"`
	Position  *Vec3   `json:"position,omitempty"`
	Shadows   bool    `json:"castShadow,omitempty"`
}

type Node struct {
	Name        string              `json:"name"`
	URL         string              `json:"url"`
	Parent      string              `json:"parent,omitempty"`
	ItemID      domain.ItemID       `json:"itemId,omitempty"`
	Category    domain.Category     `json:"category,omitempty"`
	TextureMaps *domain.TextureMaps `json:"textureMaps,omitempty"`
	Bytes       int                 `json:"bytes,omitempty"`
}

type Manifest struct {
	Generation uint64          `json:"generation"`
	Mode       Mode            `json:"mode"`
	Camera     Camera          `json:"camera"`
	Lights     []Light         `json:"lights"`
	Avatar     Node            `json:"avatar"`
	Animation  string          `json:"animation,omitempty"`
	AutoRotate bool            `json:"autoRotate"`
	Clothing   []Node          `json:"clothing"`
	Skipped    []domain.ItemID `json:"skipped,omitempty"`
}

const avatarNode = "avatar"

// Options tune the stage. Zero values use the defaults.
type Options struct {
	CameraDistance   float64
	AmbientIntensity float64
	KeyIntensity     float64
	FillIntensity    float64
	MaxModelBytes    int64
	Concurrency      int
}

func (o *Options) defaults() {
	if o.CameraDistance == 0 {
		o.CameraDistance = 3
	}
	if o.AmbientIntensity == 0 {
		o.AmbientIntensity = 0.5
	}
	if o.KeyIntensity == 0 {
		o.KeyIntensity = 1
	}
	if o.FillIntensity == 0 {
		o.FillIntensity = 0.5
	}
	if o.MaxModelBytes == 0 {
		o.MaxModelBytes = 64 << 20
	}
	if o.Concurrency == 0 {
		o.Concurrency = 4
	}
}

type Composer struct {
	assets domain.AssetResolver
	opts   Options
}

func NewComposer(assets domain.AssetResolver, opts Options) *Composer {
	opts.defaults()
	return &Composer{assets: assets, opts: opts}
}

// Compose describes the scene for avatarURL dressed in items. Garment models
// are fetched concurrently and checked to be binary glTF; any that fail are
// logged and listed in Skipped. The avatar itself is only inspected for
// animation names, so an unreachable avatar still yields a scene.
func (c *Composer) Compose(ctx context.Context, avatarURL string, items []domain.ClothingItem, mode Mode) (*Manifest, error) {
	if avatarURL == "" {
		return nil, fmt.Errorf("avatar url required")
	}
	m := &Manifest{
		Mode: mode,
		Camera: Camera{
			Position: Vec3{0, 1.5, c.opts.CameraDistance},
			Target:   Vec3{0, 1, 0},
			FOV:      50,
		},
		Lights: []Light{
			{Type: "ambient", Intensity: c.opts.AmbientIntensity},
			{Type: "directional", Intensity: c.opts.KeyIntensity, Position: &Vec3{10, 10, 5}, Shadows: true},
			{Type: "directional", Intensity: c.opts.FillIntensity, Position: &Vec3{-10, 10, 5}, Shadows: true},
		},
		Avatar:     Node{Name: avatarNode, URL: avatarURL},
		AutoRotate: mode == ModeTurning,
		Clothing:   []Node{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	g.Go(func() error {
		model, err := c.fetch(gctx, avatarURL)
		if err != nil {
			log.Warn().Err(err).Str("avatar", avatarURL).Msg("avatar animations unavailable")
			return nil
		}
		m.Avatar.Bytes = model.Size
		m.Animation = SelectClip(mode, model.Animations)
		return nil
	})

	var mu sync.Mutex
	nodes := make([]*Node, len(items))
	for i, it := range items {
		if it.ModelURL == "" {
			mu.Lock()
			m.Skipped = append(m.Skipped, it.ID)
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			model, err := c.fetch(gctx, it.ModelURL)
			if err != nil {
				log.Warn().Err(err).Str("item", string(it.ID)).Str("model", it.ModelURL).Msg("clothing model skipped")
				mu.Lock()
				m.Skipped = append(m.Skipped, it.ID)
				mu.Unlock()
				return nil
			}
			nodes[i] = &Node{
				Name:        "clothing_" + string(it.ID),
				URL:         it.ModelURL,
				Parent:      avatarNode,
				ItemID:      it.ID,
				Category:    it.Category,
				TextureMaps: it.TextureMaps,
				Bytes:       model.Size,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n != nil {
			m.Clothing = append(m.Clothing, *n)
		}
	}
	return m, nil
}

func (c *Composer) fetch(ctx context.Context, ref string) (*Model, error) {
	rc, err := c.assets.OpenAsset(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, c.opts.MaxModelBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > c.opts.MaxModelBytes {
		return nil, fmt.Errorf("model larger than %d bytes", c.opts.MaxModelBytes)
	}
	return ParseGLB(b)
}
