package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

// VisitorHeader carries the storefront visitor token.
const VisitorHeader = "X-Cart-Token"

// VisitorToken reads the visitor token, minting one when it is missing or not
// a UUID, and echoes it on the response.
func VisitorToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitor := strings.TrimSpace(r.Header.Get(VisitorHeader))
			if _, err := uuid.Parse(visitor); err != nil {
				visitor = uuid.NewString()
			}
			w.Header().Set(VisitorHeader, visitor)

			ctx := WithVisitor(r.Context(), visitor)
			if logg != nil {
				ctx = logg.WithVisitor(ctx, visitor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
