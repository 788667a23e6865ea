package cart

import (
	"github.com/shopspring/decimal"
)

// Product is the catalog data needed to place a piece in the cart.
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Stock  *int            `json:"stock,omitempty"`
	Status string          `json:"status,omitempty"`
}

// Line is one product in the cart. At most one line exists per product id and
// Quantity is always at least 1 while the line is present.
type Line struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Stock    *int            `json:"stock,omitempty"`
	Status   string          `json:"status,omitempty"`
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a read-only copy of the cart state.
type Snapshot struct {
	Items      []Line          `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	IsOpen     bool            `json:"isOpen"`
}

func lineFromProduct(p Product) Line {
	return Line{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
		Stock:    p.Stock,
		Status:   p.Status,
	}
}

func totals(lines []Line) (int, decimal.Decimal) {
	items := 0
	price := decimal.Zero
	for _, line := range lines {
		items += line.Quantity
		price = price.Add(line.Subtotal())
	}
	return items, price
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
