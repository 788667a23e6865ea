package checkout

import (
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/cart"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSummary is the immutable record of a completed checkout.
type OrderSummary struct {
	ID            string              `json:"id"`
	CreatedAt     time.Time           `json:"createdAt"`
	Customer      CustomerDetails     `json:"customer"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Items         []cart.Line         `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Total         decimal.Decimal     `json:"total"`
}

// BuildSummary snapshots lines and computes the totals. Total equals subtotal
// since no shipping or tax applies.
func BuildSummary(now time.Time, id uuid.UUID, customer CustomerDetails, method enums.PaymentMethod, lines []cart.Line) OrderSummary {
	items := make([]cart.Line, len(lines))
	copy(items, lines)

	subtotal := decimal.Zero
	for _, line := range items {
		subtotal = subtotal.Add(line.Subtotal())
	}

	return OrderSummary{
		ID:            id.String(),
		CreatedAt:     now.UTC(),
		Customer:      customer,
		PaymentMethod: method,
		Items:         items,
		Subtotal:      subtotal,
		Total:         subtotal,
	}
}

// toModel maps the summary onto the persisted order rows.
func toModel(summary OrderSummary, id uuid.UUID) *models.Order {
	var reference *string
	if summary.Customer.Reference != "" {
		ref := summary.Customer.Reference
		reference = &ref
	}

	items := make([]models.OrderItem, 0, len(summary.Items))
	for _, line := range summary.Items {
		items = append(items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     id,
			ProductID:   line.ID,
			ProductName: line.Name,
			ImageURL:    line.Image,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
			LineTotal:   line.Subtotal(),
			CreatedAt:   summary.CreatedAt,
		})
	}

	return &models.Order{
		ID:                 id,
		CustomerFirstName:  summary.Customer.FirstName,
		CustomerLastName:   summary.Customer.LastName,
		CustomerEmail:      summary.Customer.Email,
		CustomerPhone:      summary.Customer.Phone,
		CustomerAddress:    summary.Customer.Address,
		CustomerCity:       summary.Customer.City,
		CustomerPostalCode: summary.Customer.PostalCode,
		CustomerReference:  reference,
		PaymentMethod:      summary.PaymentMethod,
		Subtotal:           summary.Subtotal,
		Total:              summary.Total,
		Status:             enums.OrderStatusReceived,
		Items:              items,
		CreatedAt:          summary.CreatedAt,
		UpdatedAt:          summary.CreatedAt,
	}
}
