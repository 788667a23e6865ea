package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/api/validators"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

// CatalogList serves the public catalog. Without an explicit material the
// visitor's current theme decides which collection is shown.
func CatalogList(svc product.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		material, err := materialFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := product.CatalogInput{
			Material: material,
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 64),
			Search:   validators.SanitizeString(r.URL.Query().Get("search"), 120),
		}
		catalog, err := svc.ListCatalog(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog)
	}
}

func CatalogLanding(svc product.Service, sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		material, err := materialFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := validators.ParseQueryBool(r, "featuredOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 48)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := product.LandingInput{Material: material, Limit: limit}
		if featured != nil {
			input.FeaturedOnly = *featured
		}
		items, err := svc.Landing(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func CatalogGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		item, err := svc.Get(r.Context(), strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func materialFor(r *http.Request, sessions VisitorSessions) (*enums.Material, error) {
	material, err := validators.ParseQueryMaterial(r, "material")
	if err != nil || material != nil || sessions == nil {
		return material, err
	}
	var fromTheme enums.Material
	err = runSession(r, sessions, func(_ context.Context, sess *storefront.Session) error {
		fromTheme = sess.Material()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fromTheme, nil
}
