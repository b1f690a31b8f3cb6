package session

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the credential we store.
type contextKey string

const credentialKey contextKey = "credential"

// Require is the gate in front of every route that needs a live session.
//
// It consults the Manager — not a cookie, not a header: the gateway owns
// exactly one session and the Manager is its single source of truth. When
// logged in, the bearer credential is stored in the request context for the
// handler to forward upstream. When logged out, the chain stops with 401.
func Require(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := m.Credential()
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"no active session"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), credentialKey, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialFromContext retrieves the bearer credential placed by Require.
// Returns ("", false) on routes that did not pass through the gate.
func CredentialFromContext(ctx context.Context) (string, bool) {
	cred, ok := ctx.Value(credentialKey).(string)
	return cred, ok && cred != ""
}
