package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gochop/gochop-auth/internal/crypto"
)

type contextKey string

const sessionKey contextKey = "session"

// BearerAuth returns middleware that validates a Bearer session token from
// the Authorization header and stores the decoded claims in the context.
func BearerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONMessage(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeJSONMessage(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := crypto.ParseSessionToken(token, secret)
			if err != nil {
				writeJSONMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the authenticated session claims from the
// request context.
func SessionFromContext(ctx context.Context) (*crypto.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionKey).(*crypto.SessionClaims)
	return claims, ok
}

func writeJSONMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
