package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cashflow/internal/auth"
)

type ctxKey string

const (
	CtxUserID ctxKey = "user_id"
	CtxEmail  ctxKey = "email"
)

// JWTAuth admits requests carrying a valid access token. Recovery tokens are
// rejected because they are minted for a different audience.
func JWTAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing Authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid Authorization header")
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(parts[1]), auth.AudienceAccess)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			if claims.UserID() == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, claims.UserID())
			ctx = context.WithValue(ctx, CtxEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user set by JWTAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxUserID).(string)
	return id, ok && id != ""
}

func writeJSONError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code, "message": message})
}
