package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/api/validators"
	"github.com/diegojoyero/joyeria-backend/internal/cart"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

// ProductLookup resolves a publicly visible product.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*product.ProductDTO, error)
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func CartGet(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(_ context.Context, _ *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.Snapshot(), nil
	})
}

func CartClear(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(ctx context.Context, _ *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.Clear(ctx), nil
	})
}

// CartAddItem adds one unit of an active product. Name, price and image are
// taken from the catalog, never from the request.
func CartAddItem(sessions VisitorSessions, products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := products.Get(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withSession(w, r, sessions, logg, func(ctx context.Context, sess *storefront.Session) error {
			responses.WriteSuccess(w, sess.Cart().AddItem(ctx, item.CartProduct()))
			return nil
		})
	}
}

func CartRemoveItem(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(ctx context.Context, r *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.RemoveItem(ctx, productIDParam(r)), nil
	})
}

func CartIncrementItem(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(ctx context.Context, r *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.IncrementItem(ctx, productIDParam(r)), nil
	})
}

func CartDecrementItem(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(ctx context.Context, r *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.DecrementItem(ctx, productIDParam(r)), nil
	})
}

// CartUpdateQuantity sets the quantity of a line; zero or less removes it.
func CartUpdateQuantity(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(ctx context.Context, r *http.Request, c *cart.Store) (cart.Snapshot, error) {
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return cart.Snapshot{}, err
		}
		return c.UpdateQuantity(ctx, productIDParam(r), *payload.Quantity), nil
	})
}

func CartOpen(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(_ context.Context, _ *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.OpenCart(), nil
	})
}

func CartClose(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(_ context.Context, _ *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.CloseCart(), nil
	})
}

func CartToggle(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return cartAction(sessions, logg, func(_ context.Context, _ *http.Request, c *cart.Store) (cart.Snapshot, error) {
		return c.ToggleCart(), nil
	})
}

func cartAction(sessions VisitorSessions, logg *logger.Logger, apply func(ctx context.Context, r *http.Request, c *cart.Store) (cart.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(w, r, sessions, logg, func(ctx context.Context, sess *storefront.Session) error {
			snap, err := apply(ctx, r, sess.Cart())
			if err != nil {
				return err
			}
			responses.WriteSuccess(w, snap)
			return nil
		})
	}
}

func productIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "productId"))
}
