package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/auth"
)

func protected(t *testing.T, tokens *auth.TokenIssuer) http.Handler {
	t.Helper()
	return JWTAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		email, _ := r.Context().Value(CtxEmail).(string)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "email": email})
	}))
}

func TestJWTAuthAcceptsAccessToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret")
	tok, _, err := tokens.Sign("u1", "ana@example.com", auth.AudienceAccess, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	protected(t, tokens).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, "ana@example.com", body["email"])
}

func TestJWTAuthRejects(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret")
	recovery, _, err := tokens.Sign("u1", "", auth.AudiencePasswordReset, time.Hour)
	require.NoError(t, err)
	foreign, _, err := auth.NewTokenIssuer("other").Sign("u1", "", auth.AudienceAccess, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage":        "Bearer not-a-jwt",
		"recovery token": "Bearer " + recovery,
		"foreign secret": "Bearer " + foreign,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			protected(t, tokens).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), `"error":"unauthorized"`)
		})
	}
}
