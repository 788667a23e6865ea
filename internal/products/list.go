package product

import (
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// ListFilters narrows a product query. Zero values leave a dimension open.
type ListFilters struct {
	Status     *enums.ProductStatus
	Material   *enums.Material
	Categories []string
	Featured   *bool
	InStock    bool
	Search     string
	// FeaturedFirst orders featured pieces ahead of the rest before created_at.
	FeaturedFirst bool
	// ByPriceDesc orders by price, highest first.
	ByPriceDesc bool
	Limit       int
}

// CatalogInput selects the public catalog slice a visitor sees.
type CatalogInput struct {
	Material *enums.Material
	Category string
	Search   string
}

// LandingInput selects the landing page grid.
type LandingInput struct {
	Material     *enums.Material
	FeaturedOnly bool
	Limit        int
}

// AdminListInput filters the admin product table.
type AdminListInput struct {
	Material *enums.Material
	Status   *enums.ProductStatus
	Search   string
}
