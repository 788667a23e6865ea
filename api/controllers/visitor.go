package controllers

import (
	"context"
	"net/http"

	"github.com/diegojoyero/joyeria-backend/api/middleware"
	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/internal/storefront"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

// VisitorSessions resolves the storefront session of a visitor token.
type VisitorSessions interface {
	Session(ctx context.Context, visitor string) (*storefront.Session, error)
}

// withSession loads the caller's session and runs fn with it locked. An error
// from fn is written as the response.
func withSession(w http.ResponseWriter, r *http.Request, sessions VisitorSessions, logg *logger.Logger, fn func(ctx context.Context, sess *storefront.Session) error) {
	if err := runSession(r, sessions, fn); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
	}
}

func runSession(r *http.Request, sessions VisitorSessions, fn func(ctx context.Context, sess *storefront.Session) error) error {
	if sessions == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "storefront unavailable")
	}
	visitor := middleware.VisitorFromContext(r.Context())
	if visitor == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "visitor token missing")
	}
	sess, err := sessions.Session(r.Context(), visitor)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visitor session")
	}
	return sess.Do(r.Context(), func(ctx context.Context) error { return fn(ctx, sess) })
}
