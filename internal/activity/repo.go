package activity

import (
	"context"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists the admin activity feed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ActivityEntry) error
	Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an activity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	var rows []models.ActivityEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
