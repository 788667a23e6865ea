package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegojoyero/joyeria-backend/internal/cart"
	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) IncNotification(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, outcome)
}

func summary() checkout.OrderSummary {
	line := cart.Line{ID: "p1", Name: "Anillo Sol", Price: decimal.NewFromInt(50), Quantity: 2}
	return checkout.BuildSummary(time.Now(), uuid.New(), checkout.CustomerDetails{
		FirstName: "Ana", LastName: "Flores", Email: "ana@correo.pe", Phone: "987654321",
		Address: "Jr. Cusco 45", City: "Arequipa", PostalCode: "04001",
	}, enums.PaymentMethodYape, []cart.Line{line})
}

func notificationConfig(endpoint string) config.NotificationConfig {
	return config.NotificationConfig{
		Endpoint: endpoint,
		Brand:    "Diego Joyero",
		Template: "order-confirmation",
		Timeout:  time.Second,
	}
}

func TestNotifyPostsTemplateAndSummary(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	rec := &outcomes{}
	n := NewEmailNotifier(notificationConfig(srv.URL), WithMetrics(rec))
	require.NoError(t, n.Notify(context.Background(), summary()))

	assert.Equal(t, "order-confirmation", got["template"])
	assert.Equal(t, "Diego Joyero", got["brand"])
	inner := got["payload"].(map[string]any)
	assert.Equal(t, "100", inner["total"])
	assert.Equal(t, []string{"success"}, rec.seen)
}

func TestNotifyReturnsReplyTextOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plantilla desconocida", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	rec := &outcomes{}
	n := NewEmailNotifier(notificationConfig(srv.URL), WithMetrics(rec))
	err := n.Notify(context.Background(), summary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plantilla desconocida")
	assert.Equal(t, []string{"failure"}, rec.seen)
}

func TestNotifyEmptyReplyUsesDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewEmailNotifier(notificationConfig(srv.URL)).Notify(context.Background(), summary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), defaultFailureMessage)
}

func TestNotifyDisabledIsNoop(t *testing.T) {
	rec := &outcomes{}
	n := NewEmailNotifier(notificationConfig("  "), WithMetrics(rec))
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), summary()))
	assert.Equal(t, []string{"skipped"}, rec.seen)
}

func TestNotifyBreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewEmailNotifier(notificationConfig(srv.URL))
	for i := 0; i < breakerConsecutiveFail+2; i++ {
		_ = n.Notify(context.Background(), summary())
	}
	assert.Equal(t, breakerConsecutiveFail, calls)
}
