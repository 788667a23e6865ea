package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/api/validators"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

type setThemeRequest struct {
	Theme string `json:"theme" validate:"required"`
}

func ThemeGet(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(w, r, sessions, logg, func(_ context.Context, sess *storefront.Session) error {
			responses.WriteSuccess(w, sess.Theme().Snapshot())
			return nil
		})
	}
}

func ThemeSet(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setThemeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := enums.ParseThemeMode(strings.ToLower(strings.TrimSpace(payload.Theme)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid theme").WithDetails(map[string]any{"field": "theme"}))
			return
		}
		withSession(w, r, sessions, logg, func(_ context.Context, sess *storefront.Session) error {
			responses.WriteSuccess(w, sess.Theme().SetTheme(mode))
			return nil
		})
	}
}

func ThemeToggle(sessions VisitorSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(w, r, sessions, logg, func(_ context.Context, sess *storefront.Session) error {
			responses.WriteSuccess(w, sess.Theme().ToggleTheme())
			return nil
		})
	}
}
