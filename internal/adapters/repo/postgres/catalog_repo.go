package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/tryon/internal/domain"
)

// CatalogRepo persists garments so that spreadsheet imports survive restarts.
type CatalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) List(ctx context.Context, f domain.CatalogFilter) ([]domain.ClothingItem, error) {
	var list []domain.ClothingItem
	q := r.db.WithContext(ctx).Model(&domain.ClothingItem{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if err := q.Order("position asc").Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CatalogRepo) FindByID(ctx context.Context, id domain.ItemID) (*domain.ClothingItem, error) {
	var it domain.ClothingItem
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// Upsert inserts or updates items by id. New items are appended after the
// current last position; existing ones keep theirs.
func (r *CatalogRepo) Upsert(ctx context.Context, items ...domain.ClothingItem) (created int, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&domain.ClothingItem{}).Select("COALESCE(MAX(position), 0)").Scan(&maxPos).Error; err != nil {
			return err
		}
		for _, it := range items {
			var existing domain.ClothingItem
			err := tx.Select("id", "position").First(&existing, "id = ?", it.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				maxPos++
				it.Position = maxPos
				created++
			case err != nil:
				return err
			default:
				it.Position = existing.Position
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&it).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}

func (r *CatalogRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.ClothingItem{}).Count(&n).Error
	return n, err
}
