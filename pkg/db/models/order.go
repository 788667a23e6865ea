package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

// Order is the persisted header of a placed order. Customer details are
// snapshotted at submission time.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerFirstName  string              `gorm:"column:customer_first_name;not null"`
	CustomerLastName   string              `gorm:"column:customer_last_name;not null"`
	CustomerEmail      string              `gorm:"column:customer_email;not null"`
	CustomerPhone      string              `gorm:"column:customer_phone;not null"`
	CustomerAddress    string              `gorm:"column:customer_address;not null"`
	CustomerCity       string              `gorm:"column:customer_city;not null"`
	CustomerPostalCode string              `gorm:"column:customer_postal_code;not null"`
	CustomerReference  *string             `gorm:"column:customer_reference"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'received'"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at"`
	UpdatedAt          time.Time           `gorm:"column:updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots one purchased line.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID   string          `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }
