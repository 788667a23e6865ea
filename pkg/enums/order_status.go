package enums

import "fmt"

// OrderStatus tracks fulfillment of a placed order. Only administrators advance it.
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusSent      OrderStatus = "sent"
)

// validOrderStatuses is ordered by tracking step.
var validOrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPaid,
	OrderStatusPreparing,
	OrderStatusSent,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	return s.StepIndex() >= 0
}

// StepIndex returns the position of the status on the tracking timeline, or -1.
func (s OrderStatus) StepIndex() int {
	for i, candidate := range validOrderStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// OrderStatuses returns the tracking timeline in order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
