// Package selection tracks the garments picked for the 3D/integration try-on,
// one per category.
package selection

import "github.com/phenrril/tryon/internal/domain"

// exclusive lists which categories a pick clears.
var exclusive = map[domain.Category][]domain.Category{
	domain.CategoryFull:  {domain.CategoryUpper, domain.CategoryLower, domain.CategoryShoes},
	domain.CategoryUpper: {domain.CategoryFull},
	domain.CategoryLower: {domain.CategoryFull},
	domain.CategoryShoes: {domain.CategoryFull},
}

// Selection is not safe for concurrent use.
type Selection struct {
	items map[domain.Category]domain.ClothingItem
}

func New(items ...domain.ClothingItem) *Selection {
	s := &Selection{items: map[domain.Category]domain.ClothingItem{}}
	for _, it := range items {
		s.Select(it)
	}
	return s
}

// Select puts it in its category slot, replacing the previous item there and
// clearing any conflicting slots.
func (s *Selection) Select(it domain.ClothingItem) {
	for _, c := range exclusive[it.Category] {
		delete(s.items, c)
	}
	s.items[it.Category] = it
}

func (s *Selection) Remove(c domain.Category) { delete(s.items, c) }

func (s *Selection) Get(c domain.Category) (domain.ClothingItem, bool) {
	it, ok := s.items[c]
	return it, ok
}

func (s *Selection) Len() int { return len(s.items) }

// Items returns the selection in canonical category order, followed by any
// unknown categories in no particular order.
func (s *Selection) Items() []domain.ClothingItem {
	out := make([]domain.ClothingItem, 0, len(s.items))
	seen := map[domain.Category]bool{}
	for _, c := range domain.Categories {
		if it, ok := s.items[c]; ok {
			out = append(out, it)
			seen[c] = true
		}
	}
	for c, it := range s.items {
		if !seen[c] {
			out = append(out, it)
		}
	}
	return out
}
