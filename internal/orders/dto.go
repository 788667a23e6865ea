package orders

import (
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilters narrows the admin order table.
type ListFilters struct {
	Status *enums.OrderStatus
	Email  string
}

// CustomerDTO is the contact block of an order.
type CustomerDTO struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode string  `json:"postalCode"`
	Reference  *string `json:"reference,omitempty"`
}

// ItemDTO is one purchased line.
type ItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	Customer      CustomerDTO         `json:"customer"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Status        enums.OrderStatus   `json:"status"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Total         decimal.Decimal     `json:"total"`
	Items         []ItemDTO           `json:"items"`
}

// TrackingStep is one entry of the public status timeline.
type TrackingStep struct {
	Status    enums.OrderStatus `json:"status"`
	Completed bool              `json:"completed"`
	Current   bool              `json:"current"`
}

// TrackingDTO is returned to shoppers following an order.
type TrackingDTO struct {
	Order     OrderDTO       `json:"order"`
	StepIndex int            `json:"stepIndex"`
	Steps     []TrackingStep `json:"steps"`
}

// FromModel maps a persisted order to its DTO.
func FromModel(m models.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, ItemDTO{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Image:     item.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return OrderDTO{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Customer: CustomerDTO{
			FirstName:  m.CustomerFirstName,
			LastName:   m.CustomerLastName,
			Email:      m.CustomerEmail,
			Phone:      m.CustomerPhone,
			Address:    m.CustomerAddress,
			City:       m.CustomerCity,
			PostalCode: m.CustomerPostalCode,
			Reference:  m.CustomerReference,
		},
		PaymentMethod: m.PaymentMethod,
		Status:        m.Status,
		Subtotal:      m.Subtotal,
		Total:         m.Total,
		Items:         items,
	}
}

func trackingFor(order OrderDTO) TrackingDTO {
	index := order.Status.StepIndex()
	statuses := enums.OrderStatuses()
	steps := make([]TrackingStep, 0, len(statuses))
	for i, status := range statuses {
		steps = append(steps, TrackingStep{
			Status:    status,
			Completed: index >= 0 && i <= index,
			Current:   i == index,
		})
	}
	return TrackingDTO{Order: order, StepIndex: index, Steps: steps}
}
