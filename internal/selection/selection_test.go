package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/phenrril/tryon/internal/domain"
)

func it(id string, c domain.Category) domain.ClothingItem {
	return domain.ClothingItem{ID: domain.ItemID(id), Category: c}
}

func TestSelect_FullClearsParts(t *testing.T) {
	s := New(it("u", domain.CategoryUpper), it("l", domain.CategoryLower), it("s", domain.CategoryShoes), it("o", domain.CategoryOuter))
	s.Select(it("f", domain.CategoryFull))

	ids := []domain.ItemID{}
	for _, x := range s.Items() {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []domain.ItemID{"o", "f"}, ids)
}

func TestSelect_PartClearsFull(t *testing.T) {
	s := New(it("f", domain.CategoryFull))
	s.Select(it("s", domain.CategoryShoes))
	_, ok := s.Get(domain.CategoryFull)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSelect_ReplacesSameCategory(t *testing.T) {
	s := New(it("a", domain.CategoryUpper), it("b", domain.CategoryUpper))
	got, ok := s.Get(domain.CategoryUpper)
	assert.True(t, ok)
	assert.Equal(t, domain.ItemID("b"), got.ID)
	s.Remove(domain.CategoryUpper)
	assert.Zero(t, s.Len())
}

func TestSelect_NeverFullWithParts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New()
		n := rapid.IntRange(1, 30).Draw(rt, "n")
		for i := 0; i < n; i++ {
			c := rapid.SampledFrom(domain.Categories).Draw(rt, "cat")
			s.Select(it("x", c))
			_, full := s.Get(domain.CategoryFull)
			for _, p := range []domain.Category{domain.CategoryUpper, domain.CategoryLower, domain.CategoryShoes} {
				if _, ok := s.Get(p); ok && full {
					rt.Fatalf("full selected together with %s", p)
				}
			}
		}
	})
}
