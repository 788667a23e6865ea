package visibility

import (
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

// EnsureProductVisible enforces the storefront rule that only active pieces
// reach visitors. Hidden products are reported as missing, never forbidden.
func EnsureProductVisible(p *models.Product) error {
	if p == nil || p.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// Listed reports whether p belongs in the public catalog grid: active and in
// stock. A visible product with no stock can still be opened by id.
func Listed(p models.Product) bool {
	return p.Status == enums.ProductStatusActive && p.Stock > 0
}
