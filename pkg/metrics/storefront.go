package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "joyeria"

// Outcome labels shared by the storefront counters.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Storefront records the business counters of the shop.
type Storefront struct {
	checkoutSubmissions *prometheus.CounterVec
	ordersPlaced        prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	imageOperations     *prometheus.CounterVec
	cartMutations       *prometheus.CounterVec
	csvRows             *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	checkoutSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_submissions_total",
		Help:      "Checkout submissions by outcome.",
	}, []string{"outcome"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders persisted by the checkout.",
	})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status changes applied by administrators.",
	}, []string{"from", "to"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_notifications_total",
		Help:      "Order confirmation deliveries by outcome.",
	}, []string{"outcome"})
	imageOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_operations_total",
		Help:      "Image host calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"operation"})
	csvRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_import_rows_total",
		Help:      "CSV import rows by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(checkoutSubmissions, ordersPlaced, statusTransitions, notifications, imageOperations, cartMutations, csvRows)
	return &Storefront{
		checkoutSubmissions: checkoutSubmissions,
		ordersPlaced:        ordersPlaced,
		statusTransitions:   statusTransitions,
		notifications:       notifications,
		imageOperations:     imageOperations,
		cartMutations:       cartMutations,
		csvRows:             csvRows,
	}
}

// IncCheckoutSubmission counts a checkout submission attempt.
func (s *Storefront) IncCheckoutSubmission(outcome string) {
	if s == nil || s.checkoutSubmissions == nil {
		return
	}
	s.checkoutSubmissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOrderPlaced counts a persisted order.
func (s *Storefront) IncOrderPlaced() {
	if s == nil || s.ordersPlaced == nil {
		return
	}
	s.ordersPlaced.Inc()
}

// IncStatusTransition counts an administrator status change.
func (s *Storefront) IncStatusTransition(from, to string) {
	if s == nil || s.statusTransitions == nil {
		return
	}
	s.statusTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncNotification counts an order notification delivery.
func (s *Storefront) IncNotification(outcome string) {
	if s == nil || s.notifications == nil {
		return
	}
	s.notifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncImageOperation counts an upload or destroy call against the image host.
func (s *Storefront) IncImageOperation(operation, outcome string) {
	if s == nil || s.imageOperations == nil {
		return
	}
	s.imageOperations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncCartMutation counts a cart mutation.
func (s *Storefront) IncCartMutation(operation string) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// AddImportRows counts CSV import rows.
func (s *Storefront) AddImportRows(outcome string, n int) {
	if s == nil || s.csvRows == nil || n <= 0 {
		return
	}
	s.csvRows.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
