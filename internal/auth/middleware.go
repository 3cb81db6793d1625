package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var identityKey contextKey

// IdentityFromContext returns the identity attached by Middleware. Handlers
// behind the gate read it from here instead of re-parsing the token.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Middleware is the authentication gate: it extracts the bearer token,
// verifies it, and attaches the verified identity to the request context.
// A missing or malformed header is 401; a token that fails verification is
// 403, with no detail about why.
func Middleware(issuer *TokenIssuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		identity, err := issuer.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is the authorization gate. It is a pure function of the request
// context and must run behind Middleware; an absent identity means the gates
// were reordered, which reads as unauthenticated (401), not forbidden.
func RequireRole(role Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if identity.Role != role {
			writeError(w, http.StatusForbidden, "Insufficient role")
			return
		}
		next.ServeHTTP(w, r)
	})
}
