package httpapi

import (
	"context"
	"net/http"
	"strings"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/obs"
)

const (
	denialUnauthenticated = "unauthenticated"
	denialUnauthorized    = "unauthorized"
)

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	AuthenticateToken(ctx context.Context, token string) (auth.Principal, error)
}

// Guard protects routes. It fails closed: requests without a valid bearer
// token get 401, authenticated requests lacking the required permission or
// role get 403.
type Guard struct {
	auth Authenticator
}

func NewGuard(a Authenticator) *Guard {
	return &Guard{auth: a}
}

// Authenticate verifies the Authorization header and attaches the resolved
// principal to the request context.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			g.deny(w, http.StatusUnauthorized, denialUnauthenticated)
			return
		}
		principal, err := g.auth.AuthenticateToken(r.Context(), token)
		if err != nil {
			g.deny(w, http.StatusUnauthorized, denialUnauthenticated)
			return
		}
		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission admits only principals holding the named permission.
func (g *Guard) RequirePermission(name string) func(http.Handler) http.Handler {
	return g.require(func(p auth.Principal) bool { return p.HasPermission(name) })
}

// RequireAnyPermission admits principals holding at least one of the named
// permissions. With no names it admits nobody.
func (g *Guard) RequireAnyPermission(names ...string) func(http.Handler) http.Handler {
	return g.require(func(p auth.Principal) bool { return p.HasAnyPermission(names...) })
}

// RequireAllPermissions admits principals holding every named permission.
func (g *Guard) RequireAllPermissions(names ...string) func(http.Handler) http.Handler {
	return g.require(func(p auth.Principal) bool { return p.HasAllPermissions(names...) })
}

// RequireRole admits principals holding the named role. Matching is exact.
func (g *Guard) RequireRole(name string) func(http.Handler) http.Handler {
	return g.require(func(p auth.Principal) bool { return p.HasRole(name) })
}

func (g *Guard) require(allowed func(auth.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				g.deny(w, http.StatusUnauthorized, denialUnauthenticated)
				return
			}
			if !allowed(principal) {
				g.deny(w, http.StatusForbidden, denialUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, status int, reason string) {
	obs.CountDenial(reason)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeError(w, status, "authentication required")
		return
	}
	writeError(w, status, "forbidden")
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
