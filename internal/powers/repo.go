package powers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/pkg/db/models"
)

// Repository exposes read access to the power category catalog.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListCategories returns the full catalog in display order with sub-powers
// preloaded.
func (r *Repository) ListCategories(ctx context.Context) ([]models.PowerCategory, error) {
	var rows []models.PowerCategory
	err := r.db.WithContext(ctx).
		Preload("SubPowers", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("sort_order ASC").
		Find(&rows).Error
	return rows, err
}

// FindByIDs returns the categories for the given ids with sub-powers
// preloaded. Missing ids simply do not appear in the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PowerCategory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.PowerCategory
	err := r.db.WithContext(ctx).
		Preload("SubPowers", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id IN ?", ids).
		Order("sort_order ASC").
		Find(&rows).Error
	return rows, err
}
