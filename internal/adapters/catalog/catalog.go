// Package catalog holds the garment catalog: the embedded sample set plus any
// items imported from a spreadsheet.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/phenrril/tryon/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Items []domain.ClothingItem `yaml:"items"`
}

// Repo is an in-memory domain.CatalogRepo. Items keep insertion order.
type Repo struct {
	mu    sync.RWMutex
	order []domain.ItemID
	items map[domain.ItemID]domain.ClothingItem
}

func NewRepo() *Repo {
	return &Repo{items: map[domain.ItemID]domain.ClothingItem{}}
}

// NewSeeded returns a repo holding the built-in sample garments.
func NewSeeded() (*Repo, error) {
	r := NewRepo()
	items, err := Seed()
	if err != nil {
		return nil, fmt.Errorf("catalog seed: %w", err)
	}
	if _, err := r.Upsert(context.Background(), items...); err != nil {
		return nil, err
	}
	return r, nil
}

func ParseYAML(b []byte) ([]domain.ClothingItem, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	for i, it := range f.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item %d: missing id", i)
		}
	}
	return f.Items, nil
}

// Sink receives catalog items; both this package's Repo and the database
// repository implement it.
type Sink interface {
	Upsert(ctx context.Context, items ...domain.ClothingItem) (created int, err error)
}

// Seed returns the built-in sample garments.
func Seed() ([]domain.ClothingItem, error) {
	return ParseYAML(seedYAML)
}

// Upsert adds items, replacing any with the same id in place. It reports how
// many were new.
func (r *Repo) Upsert(ctx context.Context, items ...domain.ClothingItem) (created int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		if _, ok := r.items[it.ID]; !ok {
			r.order = append(r.order, it.ID)
			created++
		}
		r.items[it.ID] = it
	}
	return created, nil
}

func (r *Repo) List(ctx context.Context, f domain.CatalogFilter) ([]domain.ClothingItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ClothingItem, 0, len(r.order))
	for _, id := range r.order {
		it := r.items[id]
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *Repo) FindByID(ctx context.Context, id domain.ItemID) (*domain.ClothingItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}
