package product

import (
	"context"
	"strings"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const importBatchSize = 100

// Repository wraps product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads one product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products matching filters, newest first unless an explicit
// ordering is requested.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Material != nil {
		query = query.Where("material = ?", *filters.Material)
	}
	if len(filters.Categories) > 0 {
		query = query.Where("category IN ?", filters.Categories)
	}
	if filters.Featured != nil {
		query = query.Where("featured = ?", *filters.Featured)
	}
	if filters.InStock {
		query = query.Where("stock > 0")
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)", like, like, like)
	}

	switch {
	case filters.ByPriceDesc:
		query = query.Order("price DESC")
	case filters.FeaturedFirst:
		query = query.Order("featured DESC")
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every product, optionally restricted to one material.
func (r *Repository) ListAll(ctx context.Context, material *enums.Material) ([]models.Product, error) {
	return r.List(ctx, ListFilters{Material: material})
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateMany inserts every product in one transaction.
func (r *Repository) CreateMany(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&products, importBatchSize).Error
	})
}

// Update writes every editable column of product, zero values included.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":            product.Name,
			"description":     product.Description,
			"price":           product.Price,
			"material":        product.Material,
			"category":        product.Category,
			"image_url":       product.ImageURL,
			"image_public_id": product.ImagePublicID,
			"stock":           product.Stock,
			"featured":        product.Featured,
			"status":          product.Status,
			"updated_at":      product.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
