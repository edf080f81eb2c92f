package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/pose"
)

func landmarks(t *testing.T, w, h int) domain.BodyLandmarks {
	t.Helper()
	l, err := pose.Estimate(w, h)
	require.NoError(t, err)
	return l
}

func item(id string, c domain.Category) domain.ClothingItem {
	return domain.ClothingItem{ID: domain.ItemID(id), Name: id, Category: c}
}

func TestPlace_UpperUsesShoulderSpan(t *testing.T) {
	l := domain.BodyLandmarks{
		Shoulders: domain.Pair{Left: domain.Point{X: 400, Y: 300}, Right: domain.Point{X: 600, Y: 300}},
		Chest:     domain.Point{X: 500, Y: 420},
	}
	got := NewEngine().Place(l, []domain.ClothingItem{item("1", domain.CategoryUpper)})
	require.Len(t, got, 1)
	assert.InDelta(t, 200.0/150.0, got[0].Scale, 1e-9)
	assert.Equal(t, domain.Point{X: 500, Y: 420}, got[0].Position)
	assert.Equal(t, 20, got[0].ZIndex)
	assert.Zero(t, got[0].Rotation)
}

func TestPlace_CategoryTable(t *testing.T) {
	l := landmarks(t, 1000, 2000)
	items := []domain.ClothingItem{
		item("o", domain.CategoryOuter),
		item("l", domain.CategoryLower),
		item("f", domain.CategoryFull),
		item("s", domain.CategoryShoes),
	}
	got := NewEngine().Place(l, items)
	require.Len(t, got, 4)

	// outer: chest lifted by 5%, 1.2 * 200 / 150
	assert.InDelta(t, 500, got[0].Position.X, 1e-9)
	assert.InDelta(t, 600*0.95, got[0].Position.Y, 1e-9)
	assert.InDelta(t, 1.6, got[0].Scale, 1e-9)
	assert.Equal(t, 30, got[0].ZIndex)

	// lower: hips.x, halfway between waist and knee; 1.2 * 100 / 120
	assert.InDelta(t, 500, got[1].Position.X, 1e-9)
	assert.InDelta(t, (900+1500)/2.0, got[1].Position.Y, 1e-9)
	assert.InDelta(t, 1.0, got[1].Scale, 1e-9)
	assert.Equal(t, 15, got[1].ZIndex)

	// full: height term (1500-440)/300 wins over 1.1*200/150
	assert.InDelta(t, (440+1500)/2.0, got[2].Position.Y, 1e-9)
	assert.InDelta(t, (1500-440)/300.0, got[2].Scale, 1e-9)
	assert.Equal(t, 25, got[2].ZIndex)

	// shoes fall back to the chest with unit scale
	assert.Equal(t, l.Chest, got[3].Position)
	assert.Equal(t, 1.0, got[3].Scale)
	assert.Equal(t, 19, got[3].ZIndex)
}

func TestRescale(t *testing.T) {
	l := landmarks(t, 1000, 2000)
	r := Rescale(l, domain.Size{Width: 1000, Height: 2000}, domain.Size{Width: 500, Height: 500})
	assert.InDelta(t, 250, r.Chest.X, 1e-9)
	assert.InDelta(t, 150, r.Chest.Y, 1e-9)

	// zero natural size behaves like 1
	z := Rescale(domain.BodyLandmarks{Chest: domain.Point{X: 2, Y: 3}}, domain.Size{}, domain.Size{Width: 10, Height: 10})
	assert.Equal(t, domain.Point{X: 20, Y: 30}, z.Chest)
}

func TestPlace_FreshSlice(t *testing.T) {
	e := NewEngine()
	l := landmarks(t, 400, 800)
	items := []domain.ClothingItem{item("1", domain.CategoryUpper)}
	a := e.Place(l, items)
	b := e.Place(l, items)
	a[0].Scale = 99
	assert.NotEqual(t, a[0].Scale, b[0].Scale)
	assert.Empty(t, e.Place(l, nil))
}

func TestLayers_StableOrder(t *testing.T) {
	got := NewEngine().Place(landmarks(t, 600, 900), []domain.ClothingItem{
		item("coat", domain.CategoryOuter),
		item("shirt", domain.CategoryUpper),
		item("jeans", domain.CategoryLower),
		item("tee", domain.CategoryUpper),
	})
	var ids []domain.ItemID
	for _, p := range Layers(got) {
		ids = append(ids, p.Item.ID)
	}
	assert.Equal(t, []domain.ItemID{"jeans", "shirt", "tee", "coat"}, ids)
	assert.Equal(t, domain.ItemID("coat"), got[0].Item.ID, "input left untouched")
}

func TestPlace_Properties(t *testing.T) {
	cats := []domain.Category{
		domain.CategoryUpper, domain.CategoryOuter, domain.CategoryLower,
		domain.CategoryFull, domain.CategoryShoes, domain.Category("hat"),
	}
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 5000).Draw(rt, "w")
		h := rapid.IntRange(1, 5000).Draw(rt, "h")
		n := rapid.IntRange(0, 8).Draw(rt, "n")
		items := make([]domain.ClothingItem, n)
		for i := range items {
			c := rapid.SampledFrom(cats).Draw(rt, "cat")
			items[i] = item(string(rune('a'+i)), c)
		}
		l, err := pose.Estimate(w, h)
		if err != nil {
			rt.Fatal(err)
		}
		e := NewEngine()
		first := e.Place(l, items)
		second := e.Place(l, items)
		if len(first) != n {
			rt.Fatalf("got %d placements for %d items", len(first), n)
		}
		for i := range first {
			if first[i].Placement != second[i].Placement {
				rt.Fatalf("placement %d not deterministic", i)
			}
			if first[i].Rotation != 0 {
				rt.Fatalf("rotation %v", first[i].Rotation)
			}
			z := first[i].ZIndex
			switch first[i].Item.Category {
			case domain.CategoryLower:
				if z != 15 {
					rt.Fatalf("lower z %d", z)
				}
			case domain.CategoryUpper, domain.CategoryOuter, domain.CategoryFull:
			default:
				if z <= 15 || z >= 20 {
					rt.Fatalf("fallback z %d outside (15,20)", z)
				}
			}
		}
	})
}
