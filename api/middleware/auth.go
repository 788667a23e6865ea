package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/api/validators"
	pkgAuth "github.com/diegojoyero/joyeria-backend/pkg/auth"
	"github.com/diegojoyero/joyeria-backend/pkg/auth/session"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

// AdminLoginPath is where unauthenticated admins are sent.
const AdminLoginPath = "/admin/login"

// LoginURL returns the login location carrying next as the return path.
func LoginURL(next string) string {
	if next == "" {
		return AdminLoginPath
	}
	return AdminLoginPath + "?next=" + url.QueryEscape(next)
}

// ActiveAdminChecker reports whether an admin account may still act.
type ActiveAdminChecker interface {
	IsActive(ctx context.Context, adminID uuid.UUID) (bool, error)
}

// AdminGate admits requests carrying a valid admin access token backed by a
// live session of an active account. API callers get 401 with a login_url;
// browser navigations are redirected to the login page.
func AdminGate(cfg config.JWTConfig, verifier session.AccessSessionChecker, admins ActiveAdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func(err *pkgerrors.Error) {
				target := LoginURL(r.URL.RequestURI())
				if wantsHTML(r) {
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
				responses.WriteError(r.Context(), logg, w, err.WithDetails(map[string]any{"login_url": target}))
			}

			token := validators.BearerToken(r)
			if token == "" {
				deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				deny(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			if admins != nil {
				active, err := admins.IsActive(r.Context(), claims.AdminID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin status"))
					return
				}
				if !active {
					deny(pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled"))
					return
				}
			}

			ctx := pkgAuth.WithAdminID(r.Context(), claims.AdminID)
			ctx = context.WithValue(ctx, ctxAdminID, claims.AdminID.String())
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
			if logg != nil {
				ctx = logg.WithAdminID(ctx, claims.AdminID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// wantsHTML reports a top-level browser navigation rather than an API call.
func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
