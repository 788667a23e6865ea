package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegojoyero/joyeria-backend/api/middleware"
	"github.com/diegojoyero/joyeria-backend/internal/cart"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	"github.com/diegojoyero/joyeria-backend/internal/theme"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

type stubLookup struct {
	items map[string]product.ProductDTO
}

func (s stubLookup) Get(_ context.Context, id string) (*product.ProductDTO, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &item, nil
}

func ring(id uuid.UUID) product.ProductDTO {
	return product.ProductDTO{
		ID:       id,
		Name:     "Anillo Inca",
		Price:    decimal.NewFromInt(150),
		Material: enums.MaterialGold,
		Stock:    3,
		Status:   enums.ProductStatusActive,
	}
}

func storefrontRouter(t *testing.T, lookup ProductLookup) (http.Handler, *storefront.Registry) {
	t.Helper()
	reg := storefront.NewRegistry(storefront.Options{})
	t.Cleanup(reg.Close)

	r := chi.NewRouter()
	r.Use(middleware.VisitorToken(nil))
	r.Get("/cart", CartGet(reg, nil))
	r.Delete("/cart", CartClear(reg, nil))
	r.Post("/cart/items", CartAddItem(reg, lookup, nil))
	r.Delete("/cart/items/{productId}", CartRemoveItem(reg, nil))
	r.Post("/cart/items/{productId}/increment", CartIncrementItem(reg, nil))
	r.Put("/cart/items/{productId}", CartUpdateQuantity(reg, nil))
	r.Post("/cart/toggle", CartToggle(reg, nil))
	r.Get("/theme", ThemeGet(reg, nil))
	r.Put("/theme", ThemeSet(reg, nil))
	r.Post("/theme/toggle", ThemeToggle(reg, nil))
	return r, reg
}

func send(t *testing.T, h http.Handler, method, path, visitor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if visitor != "" {
		req.Header.Set(middleware.VisitorHeader, visitor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cart.Snapshot {
	t.Helper()
	var env struct {
		Data cart.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestCartAddUsesCatalogData(t *testing.T) {
	id := uuid.New()
	h, _ := storefrontRouter(t, stubLookup{items: map[string]product.ProductDTO{id.String(): ring(id)}})
	visitor := uuid.NewString()

	rec := send(t, h, http.MethodPost, "/cart/items", visitor, `{"productId":"`+id.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, visitor, rec.Header().Get(middleware.VisitorHeader))

	send(t, h, http.MethodPost, "/cart/items", visitor, `{"productId":"`+id.String()+`"}`)
	snap := decodeCart(t, send(t, h, http.MethodGet, "/cart", visitor, ""))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Anillo Inca", snap.Items[0].Name)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.True(t, snap.TotalPrice.Equal(decimal.NewFromInt(300)))
}

func TestCartAddUnknownProduct(t *testing.T) {
	h, _ := storefrontRouter(t, stubLookup{})
	rec := send(t, h, http.MethodPost, "/cart/items", uuid.NewString(), `{"productId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartQuantityAndRemoval(t *testing.T) {
	id := uuid.New()
	h, _ := storefrontRouter(t, stubLookup{items: map[string]product.ProductDTO{id.String(): ring(id)}})
	visitor := uuid.NewString()
	send(t, h, http.MethodPost, "/cart/items", visitor, `{"productId":"`+id.String()+`"}`)

	snap := decodeCart(t, send(t, h, http.MethodPut, "/cart/items/"+id.String(), visitor, `{"quantity":3}`))
	assert.Equal(t, 3, snap.TotalItems)

	snap = decodeCart(t, send(t, h, http.MethodPut, "/cart/items/"+id.String(), visitor, `{"quantity":0}`))
	assert.Empty(t, snap.Items)

	rec := send(t, h, http.MethodPut, "/cart/items/"+id.String(), visitor, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartIsPerVisitor(t *testing.T) {
	id := uuid.New()
	h, _ := storefrontRouter(t, stubLookup{items: map[string]product.ProductDTO{id.String(): ring(id)}})
	a, b := uuid.NewString(), uuid.NewString()
	send(t, h, http.MethodPost, "/cart/items", a, `{"productId":"`+id.String()+`"}`)

	assert.Equal(t, 1, decodeCart(t, send(t, h, http.MethodGet, "/cart", a, "")).TotalItems)
	assert.Equal(t, 0, decodeCart(t, send(t, h, http.MethodGet, "/cart", b, "")).TotalItems)
}

func TestCartToggle(t *testing.T) {
	h, _ := storefrontRouter(t, stubLookup{})
	visitor := uuid.NewString()
	assert.True(t, decodeCart(t, send(t, h, http.MethodPost, "/cart/toggle", visitor, "")).IsOpen)
	assert.False(t, decodeCart(t, send(t, h, http.MethodPost, "/cart/toggle", visitor, "")).IsOpen)
}

func TestThemeSetAndToggle(t *testing.T) {
	h, _ := storefrontRouter(t, stubLookup{})
	visitor := uuid.NewString()

	rec := send(t, h, http.MethodPut, "/theme", visitor, `{"theme":"bronze"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodPut, "/theme", visitor, `{"theme":"silver"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data theme.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, enums.ThemeModeSilver, env.Data.Mode)
	assert.True(t, env.Data.Transitioning)

	rec = send(t, h, http.MethodPost, "/theme/toggle", visitor, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, enums.ThemeModeGold, env.Data.Mode)
}
