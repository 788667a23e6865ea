package validators

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from the Authorization header. The "Bearer"
// scheme is optional.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
