package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/tryon/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.TryOnJob{}, &domain.ClothingItem{})
}
