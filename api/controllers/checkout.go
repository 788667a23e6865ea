package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/api/validators"
	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

type paymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

type termsRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

// CheckoutEnter returns the wizard, or a redirect to the catalog when the
// cart is empty.
func CheckoutEnter(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		withSession(w, r, sessions, logg, func(ctx context.Context, sess *storefront.Session) error {
			result, err := svc.Enter(ctx, sess)
			if err != nil {
				return err
			}
			responses.WriteSuccess(w, result)
			return nil
		})
	}
}

func CheckoutUpdateCustomer(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(svc, sessions, logg, func(ctx context.Context, r *http.Request, sess *storefront.Session) (checkout.State, error) {
		var patch checkout.CustomerPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			return checkout.State{}, err
		}
		return svc.UpdateCustomer(ctx, sess, patch)
	})
}

func CheckoutGoToPayment(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(svc, sessions, logg, func(ctx context.Context, _ *http.Request, sess *storefront.Session) (checkout.State, error) {
		return svc.GoToPayment(ctx, sess)
	})
}

func CheckoutSelectPaymentMethod(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(svc, sessions, logg, func(ctx context.Context, r *http.Request, sess *storefront.Session) (checkout.State, error) {
		var payload paymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkout.State{}, err
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			return checkout.State{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").WithDetails(map[string]any{"field": "paymentMethod"})
		}
		return svc.SelectPaymentMethod(ctx, sess, method)
	})
}

func CheckoutGoToConfirmation(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(svc, sessions, logg, func(ctx context.Context, _ *http.Request, sess *storefront.Session) (checkout.State, error) {
		return svc.GoToConfirmation(ctx, sess)
	})
}

func CheckoutAcceptTerms(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(svc, sessions, logg, func(ctx context.Context, r *http.Request, sess *storefront.Session) (checkout.State, error) {
		var payload termsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkout.State{}, err
		}
		return svc.AcceptTerms(ctx, sess, *payload.Accepted)
	})
}

func CheckoutBack(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return wizardStep(svc, sessions, logg, func(ctx context.Context, _ *http.Request, sess *storefront.Session) (checkout.State, error) {
		return svc.Back(ctx, sess)
	})
}

// CheckoutSubmit places the order and empties the cart.
func CheckoutSubmit(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		withSession(w, r, sessions, logg, func(ctx context.Context, sess *storefront.Session) error {
			summary, err := svc.Submit(ctx, sess)
			if err != nil {
				return err
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, summary)
			return nil
		})
	}
}

func wizardStep(svc checkout.Service, sessions VisitorSessions, logg *logger.Logger, apply func(ctx context.Context, r *http.Request, sess *storefront.Session) (checkout.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		withSession(w, r, sessions, logg, func(ctx context.Context, sess *storefront.Session) error {
			state, err := apply(ctx, r, sess)
			if err != nil {
				return err
			}
			responses.WriteSuccess(w, state)
			return nil
		})
	}
}
