package catalogeditor

import (
	"strings"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Draft is a sparse set of pending edits. Nil fields keep the stored value.
type Draft struct {
	Name          *string              `json:"name,omitempty"`
	Description   *string              `json:"description,omitempty"`
	Price         *decimal.Decimal     `json:"price,omitempty"`
	Material      *enums.Material      `json:"material,omitempty"`
	Category      *string              `json:"category,omitempty"`
	ImageURL      *string              `json:"imageUrl,omitempty"`
	ImagePublicID *string              `json:"imagePublicId,omitempty"`
	Stock         *int                 `json:"stock,omitempty"`
	Featured      *bool                `json:"featured,omitempty"`
	Status        *enums.ProductStatus `json:"status,omitempty"`
}

// Empty reports whether the draft changes nothing.
func (d Draft) Empty() bool {
	return d == Draft{}
}

// Merge returns d with every field set in patch overriding it.
func (d Draft) Merge(patch Draft) Draft {
	if patch.Name != nil {
		d.Name = patch.Name
	}
	if patch.Description != nil {
		d.Description = patch.Description
	}
	if patch.Price != nil {
		d.Price = patch.Price
	}
	if patch.Material != nil {
		d.Material = patch.Material
	}
	if patch.Category != nil {
		d.Category = patch.Category
	}
	if patch.ImageURL != nil {
		d.ImageURL = patch.ImageURL
	}
	if patch.ImagePublicID != nil {
		d.ImagePublicID = patch.ImagePublicID
	}
	if patch.Stock != nil {
		d.Stock = patch.Stock
	}
	if patch.Featured != nil {
		d.Featured = patch.Featured
	}
	if patch.Status != nil {
		d.Status = patch.Status
	}
	return d
}

// Apply overlays d on a copy of p.
func (d Draft) Apply(p models.Product) models.Product {
	if d.Name != nil {
		p.Name = strings.TrimSpace(*d.Name)
	}
	if d.Description != nil {
		p.Description = strings.TrimSpace(*d.Description)
	}
	if d.Price != nil {
		p.Price = d.Price.Round(2)
	}
	if d.Material != nil {
		p.Material = *d.Material
	}
	if d.Category != nil {
		p.Category = strings.TrimSpace(*d.Category)
	}
	if d.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*d.ImageURL)
	}
	if d.ImagePublicID != nil {
		id := strings.TrimSpace(*d.ImagePublicID)
		if id == "" {
			p.ImagePublicID = nil
		} else {
			p.ImagePublicID = &id
		}
	}
	if d.Stock != nil {
		p.Stock = *d.Stock
	}
	if d.Featured != nil {
		p.Featured = *d.Featured
	}
	if d.Status != nil {
		p.Status = *d.Status
	}
	return p
}

// validate returns the first problem with the merged product, in the words
// shown next to the form.
func validate(p models.Product) (string, string) {
	switch {
	case p.Name == "":
		return "name", "El nombre es obligatorio."
	case p.Price.IsNegative():
		return "price", "El precio no puede ser negativo."
	case p.Stock < 0:
		return "stock", "El stock no puede ser negativo."
	case !p.Material.IsValid():
		return "material", "Selecciona oro o plata."
	case !p.Status.IsValid():
		return "status", "Estado inválido."
	}
	return "", ""
}
