package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegojoyero/joyeria-backend/api/middleware"
	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/internal/orders"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	"github.com/diegojoyero/joyeria-backend/pkg/db/dbtest"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/diegojoyero/joyeria-backend/pkg/types"
)

func checkoutRouter(t *testing.T, lookup ProductLookup) http.Handler {
	t.Helper()
	reg := storefront.NewRegistry(storefront.Options{})
	t.Cleanup(reg.Close)

	ordersSvc, err := orders.NewService(orders.NewRepository(dbtest.Open(t)), nil, nil)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(ordersSvc, checkout.Options{})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.VisitorToken(nil))
	r.Post("/cart/items", CartAddItem(reg, lookup, nil))
	r.Get("/checkout", CheckoutEnter(checkoutSvc, reg, nil))
	r.Patch("/checkout/customer", CheckoutUpdateCustomer(checkoutSvc, reg, nil))
	r.Post("/checkout/payment", CheckoutGoToPayment(checkoutSvc, reg, nil))
	r.Put("/checkout/payment-method", CheckoutSelectPaymentMethod(checkoutSvc, reg, nil))
	r.Post("/checkout/confirmation", CheckoutGoToConfirmation(checkoutSvc, reg, nil))
	r.Put("/checkout/terms", CheckoutAcceptTerms(checkoutSvc, reg, nil))
	r.Post("/checkout/back", CheckoutBack(checkoutSvc, reg, nil))
	r.Post("/checkout/submit", CheckoutSubmit(checkoutSvc, reg, nil))
	r.Get("/orders/{orderId}", OrderTrack(ordersSvc, nil))
	return r
}

func pendant(id uuid.UUID) product.ProductDTO {
	return product.ProductDTO{
		ID:       id,
		Name:     "Dije Colibrí",
		Price:    decimal.NewFromInt(100),
		Material: enums.MaterialSilver,
		Stock:    5,
		Status:   enums.ProductStatusActive,
	}
}

func decodeState(t *testing.T, body []byte) checkout.State {
	t.Helper()
	var env struct {
		Data checkout.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	return env.Data
}

const validCustomer = `{"firstName":"Rosa","lastName":"Quispe","email":"rosa@correo.pe","phone":"987654321",` +
	`"address":"Av. Ejército 120","city":"Arequipa","postalCode":"04001"}`

func TestCheckoutEnterRedirectsOnEmptyCart(t *testing.T) {
	h := checkoutRouter(t, stubLookup{})

	rec := send(t, h, http.MethodGet, "/checkout", uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data checkout.EnterResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "/", env.Data.Redirect)
	assert.Nil(t, env.Data.Wizard)
}

func TestCheckoutInvalidEmailBlocksPayment(t *testing.T) {
	id := uuid.New()
	h := checkoutRouter(t, stubLookup{items: map[string]product.ProductDTO{id.String(): pendant(id)}})
	visitor := uuid.NewString()
	send(t, h, http.MethodPost, "/cart/items", visitor, `{"productId":"`+id.String()+`"}`)

	rec := send(t, h, http.MethodPatch, "/checkout/customer", visitor,
		`{"firstName":"Rosa","lastName":"Quispe","email":"rosa@","phone":"987654321","address":"Av. Ejército 120","city":"Arequipa","postalCode":"04001"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodPost, "/checkout/payment", visitor, "")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Errors map[string]string `json:"errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "Ingresa un correo válido.", env.Error.Details.Errors["email"])
	assert.Len(t, env.Error.Details.Errors, 1)

	rec = send(t, h, http.MethodGet, "/checkout", visitor, "")
	var entered struct {
		Data checkout.EnterResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entered))
	require.NotNil(t, entered.Data.Wizard)
	assert.Equal(t, enums.CheckoutStepCustomerInfo, entered.Data.Wizard.Step)
}

func TestCheckoutFullWalkPlacesTrackableOrder(t *testing.T) {
	id := uuid.New()
	h := checkoutRouter(t, stubLookup{items: map[string]product.ProductDTO{id.String(): pendant(id)}})
	visitor := uuid.NewString()
	send(t, h, http.MethodPost, "/cart/items", visitor, `{"productId":"`+id.String()+`"}`)

	rec := send(t, h, http.MethodPatch, "/checkout/customer", visitor, validCustomer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodPost, "/checkout/payment", visitor, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, enums.CheckoutStepPayment, decodeState(t, rec.Body.Bytes()).Step)

	rec = send(t, h, http.MethodPost, "/checkout/confirmation", visitor, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodPut, "/checkout/payment-method", visitor, `{"paymentMethod":"bitcoin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodPut, "/checkout/payment-method", visitor, `{"paymentMethod":"yape"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodPost, "/checkout/confirmation", visitor, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, enums.CheckoutStepConfirmation, decodeState(t, rec.Body.Bytes()).Step)

	rec = send(t, h, http.MethodPost, "/checkout/submit", visitor, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "terms not accepted yet")

	rec = send(t, h, http.MethodPut, "/checkout/terms", visitor, `{"accepted":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeState(t, rec.Body.Bytes()).TermsAccepted)

	rec = send(t, h, http.MethodPost, "/checkout/submit", visitor, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placed struct {
		Data checkout.OrderSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	summary := placed.Data
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(100)), summary.Subtotal.String())
	assert.True(t, summary.Total.Equal(summary.Subtotal))
	assert.Equal(t, enums.PaymentMethodYape, summary.PaymentMethod)
	require.Len(t, summary.Items, 1)

	rec = send(t, h, http.MethodGet, "/orders/"+summary.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tracked struct {
		Data orders.TrackingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tracked))
	assert.Equal(t, summary.ID, tracked.Data.Order.ID.String())
	assert.Equal(t, enums.OrderStatusReceived, tracked.Data.Order.Status)
	assert.True(t, tracked.Data.Order.Total.Equal(decimal.NewFromInt(100)))

	rec = send(t, h, http.MethodGet, "/checkout", visitor, "")
	var after struct {
		Data checkout.EnterResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	require.NotNil(t, after.Data.Cart)
	assert.Empty(t, after.Data.Cart.Items)
}

func TestCheckoutOrderTrackUnknown(t *testing.T) {
	h := checkoutRouter(t, stubLookup{})
	rec := send(t, h, http.MethodGet, "/orders/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
