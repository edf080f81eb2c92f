// Package placement turns body landmarks and a garment selection into
// overlay positions for the 2D preview.
package placement

import (
	"sort"

	"github.com/phenrril/tryon/internal/domain"
)

type Engine struct {
	rules map[domain.Category]Rule
}

func NewEngine() *Engine { return &Engine{rules: DefaultRules()} }

// NewEngineWithRules is mostly useful in tests.
func NewEngineWithRules(rules map[domain.Category]Rule) *Engine {
	return &Engine{rules: rules}
}

// Rescale maps natural-space landmarks into display space. A zero natural
// dimension is treated as 1.
func Rescale(l domain.BodyLandmarks, natural, display domain.Size) domain.BodyLandmarks {
	nw, nh := natural.Width, natural.Height
	if nw == 0 {
		nw = 1
	}
	if nh == 0 {
		nh = 1
	}
	return l.Scale(display.Width/nw, display.Height/nh)
}

// Place computes one placement per item in selection order. The returned
// slice is new on every call.
func (e *Engine) Place(l domain.BodyLandmarks, items []domain.ClothingItem) []domain.PositionedItem {
	out := make([]domain.PositionedItem, 0, len(items))
	for i, it := range items {
		rule, ok := e.rules[it.Category]
		z := rule.ZIndex
		if !ok {
			rule = fallbackRule
			z = fallbackZ(i)
		}
		out = append(out, domain.PositionedItem{
			Item: it,
			Placement: domain.Placement{
				Position: rule.center(l),
				Scale:    rule.scale(l),
				ZIndex:   z,
				Rotation: 0,
			},
		})
	}
	return out
}

// PlaceDisplayed rescales natural landmarks to the displayed size first.
func (e *Engine) PlaceDisplayed(l domain.BodyLandmarks, natural, display domain.Size, items []domain.ClothingItem) []domain.PositionedItem {
	return e.Place(Rescale(l, natural, display), items)
}

// Layers returns a copy of items ordered bottom to top. Equal zIndex keeps
// selection order.
func Layers(items []domain.PositionedItem) []domain.PositionedItem {
	out := make([]domain.PositionedItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}
