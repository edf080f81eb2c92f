package placement

import (
	"math"

	"github.com/phenrril/tryon/internal/domain"
)

type Anchor int

const (
	// AnchorChest is the chest landmark.
	AnchorChest Anchor = iota
	// AnchorThigh is hips.x at the midpoint of waist and left knee.
	AnchorThigh
	// AnchorTorso is chest.x at the midpoint of left shoulder and left knee.
	AnchorTorso
)

type Span int

const (
	SpanNone Span = iota
	SpanShoulders
	SpanKnees
)

// Rule describes how one category is laid over the body. Scale is
// SpanFactor*span/SpanDivisor, raised to (knee.y-shoulder.y)/HeightDivisor
// when HeightDivisor is set. A rule with SpanNone has scale 1.
type Rule struct {
	Anchor        Anchor
	LiftY         float64
	Span          Span
	SpanFactor    float64
	SpanDivisor   float64
	HeightDivisor float64
	ZIndex        int
}

const (
	zLower = 15
	zUpper = 20
	zFull  = 25
	zOuter = 30
)

// DefaultRules returns the rule table keyed by category. Categories missing
// from the table (shoes, anything unknown) use the fallback rule.
func DefaultRules() map[domain.Category]Rule {
	return map[domain.Category]Rule{
		domain.CategoryUpper: {Anchor: AnchorChest, LiftY: 1, Span: SpanShoulders, SpanFactor: 1, SpanDivisor: 150, ZIndex: zUpper},
		domain.CategoryOuter: {Anchor: AnchorChest, LiftY: 0.95, Span: SpanShoulders, SpanFactor: 1.2, SpanDivisor: 150, ZIndex: zOuter},
		domain.CategoryLower: {Anchor: AnchorThigh, LiftY: 1, Span: SpanKnees, SpanFactor: 1.2, SpanDivisor: 120, ZIndex: zLower},
		domain.CategoryFull:  {Anchor: AnchorTorso, LiftY: 1, Span: SpanShoulders, SpanFactor: 1.1, SpanDivisor: 150, HeightDivisor: 300, ZIndex: zFull},
	}
}

var fallbackRule = Rule{Anchor: AnchorChest, LiftY: 1, Span: SpanNone}

// fallbackZ keeps unruled items above bottoms and below tops while still
// honouring selection order.
func fallbackZ(index int) int {
	z := zLower + 1 + index
	if z > zUpper-1 {
		z = zUpper - 1
	}
	return z
}

func (r Rule) center(l domain.BodyLandmarks) domain.Point {
	var p domain.Point
	switch r.Anchor {
	case AnchorThigh:
		p = domain.Point{X: l.Hips.X, Y: (l.Waist.Y + l.Knees.Left.Y) / 2}
	case AnchorTorso:
		p = domain.Point{X: l.Chest.X, Y: (l.Shoulders.Left.Y + l.Knees.Left.Y) / 2}
	default:
		p = l.Chest
	}
	if r.LiftY != 0 && r.LiftY != 1 {
		p.Y *= r.LiftY
	}
	return p
}

func (r Rule) scale(l domain.BodyLandmarks) float64 {
	var span float64
	switch r.Span {
	case SpanShoulders:
		span = math.Abs(l.Shoulders.Right.X - l.Shoulders.Left.X)
	case SpanKnees:
		span = math.Abs(l.Knees.Right.X - l.Knees.Left.X)
	default:
		return 1
	}
	s := span * r.SpanFactor / r.SpanDivisor
	if r.HeightDivisor > 0 {
		h := (l.Knees.Left.Y - l.Shoulders.Left.Y) / r.HeightDivisor
		s = math.Max(h, s)
	}
	return s
}
