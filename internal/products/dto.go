package product

import (
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/cart"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the JSON shape of a catalog piece.
type ProductDTO struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	Material      enums.Material      `json:"material"`
	Category      string              `json:"category"`
	CategoryLabel string              `json:"categoryLabel"`
	ImageURL      string              `json:"imageUrl"`
	ImagePublicID *string             `json:"imagePublicId,omitempty"`
	Stock         int                 `json:"stock"`
	Featured      bool                `json:"featured"`
	Status        enums.ProductStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// CatalogDTO is the public catalog response.
type CatalogDTO struct {
	Products   []ProductDTO `json:"products"`
	Categories []string     `json:"categories"`
}

// FromModel converts a product row to its DTO.
func FromModel(m models.Product) ProductDTO {
	return ProductDTO{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		Material:      m.Material,
		Category:      m.Category,
		CategoryLabel: NormalizeCategory(m.Category),
		ImageURL:      m.ImageURL,
		ImagePublicID: m.ImagePublicID,
		Stock:         m.Stock,
		Featured:      m.Featured,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromModels converts a slice of rows.
func FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

// CartProduct returns the data the cart keeps for this piece.
func (p ProductDTO) CartProduct() cart.Product {
	stock := p.Stock
	return cart.Product{
		ID:     p.ID.String(),
		Name:   p.Name,
		Price:  p.Price,
		Image:  p.ImageURL,
		Stock:  &stock,
		Status: p.Status.String(),
	}
}
