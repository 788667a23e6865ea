package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// Product is one jewelry piece of the catalog.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Description   string              `gorm:"column:description;not null;default:''"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Material      enums.Material      `gorm:"column:material;type:text;not null"`
	Category      string              `gorm:"column:category;not null"`
	ImageURL      string              `gorm:"column:image_url;not null;default:''"`
	ImagePublicID *string             `gorm:"column:image_public_id"`
	Stock         int                 `gorm:"column:stock;not null;default:0"`
	Featured      bool                `gorm:"column:featured;not null;default:false"`
	Status        enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
