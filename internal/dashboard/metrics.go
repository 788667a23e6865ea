package dashboard

import (
	"github.com/shopspring/decimal"

	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// LowStockThreshold is the highest stock still reported as low.
const LowStockThreshold = 3

// Metrics are the inventory counters of the dashboard cards.
type Metrics struct {
	Total       int                 `json:"total"`
	Active      int                 `json:"active"`
	Inactive    int                 `json:"inactive"`
	LowStock    int                 `json:"lowStock"`
	OutOfStock  int                 `json:"outOfStock"`
	TotalValue  decimal.Decimal     `json:"totalValue"`
	LastProduct *product.ProductDTO `json:"lastProduct"`
}

// ComputeMetrics summarizes products.
func ComputeMetrics(products []product.ProductDTO) Metrics {
	m := Metrics{TotalValue: decimal.Zero}
	for i := range products {
		p := products[i]
		m.Total++
		active := p.Status == enums.ProductStatusActive
		if active {
			m.Active++
		}
		if active && p.Stock > 0 && p.Stock <= LowStockThreshold {
			m.LowStock++
		}
		if p.Stock <= 0 {
			m.OutOfStock++
		}
		m.TotalValue = m.TotalValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
		if m.LastProduct == nil || p.CreatedAt.After(m.LastProduct.CreatedAt) {
			m.LastProduct = &products[i]
		}
	}
	m.Inactive = m.Total - m.Active
	return m
}
