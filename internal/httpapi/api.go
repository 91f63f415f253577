package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatehouse.dev/internal/app"
	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/obs"
)

// Pinger reports database liveness for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// API wires the auth service into HTTP routes.
type API struct {
	cfg     *app.Config
	svc     *auth.Service
	guard   *Guard
	db      Pinger
	limiter *RateLimiter
}

func New(cfg *app.Config, svc *auth.Service, db Pinger) *API {
	return &API{
		cfg:     cfg,
		svc:     svc,
		guard:   NewGuard(svc),
		db:      db,
		limiter: NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
}

// Close stops background workers owned by the API.
func (a *API) Close() {
	a.limiter.Stop()
}

// Router builds the full route tree with middleware applied.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(obs.Instrument)
	r.Use(RequestLogger)
	r.Use(SecureHeaders(a.cfg.IsProduction()))
	r.Use(LimitBody)

	// Probes and metrics sit outside the rate limiter so orchestration traffic
	// never competes with clients.
	r.Get("/health", a.handleHealth)
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.limiter.Middleware)

		r.Get("/info", a.handleInfo)
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.guard.Authenticate)

			r.Get("/auth/me", a.handleMe)

			r.With(a.guard.RequireAnyPermission(auth.ViewPermissions...)).
				Get("/stats", a.handleStats)

			r.Route("/users", func(r chi.Router) {
				r.With(a.guard.RequirePermission(auth.PermViewUsers)).Get("/", a.handleListUsers)
				r.With(a.guard.RequirePermission(auth.PermCreateUsers)).Post("/", a.handleCreateUser)
				r.With(a.guard.RequirePermission(auth.PermViewUsers)).Get("/{id}", a.handleGetUser)
				r.With(a.guard.RequirePermission(auth.PermEditUsers)).Patch("/{id}", a.handleUpdateUser)
				r.With(a.guard.RequirePermission(auth.PermDeleteUsers)).Delete("/{id}", a.handleDeleteUser)

				r.With(a.guard.RequirePermission(auth.PermViewUsers)).Get("/{id}/roles", a.handleUserRoles)
				r.With(a.guard.RequirePermission(auth.PermEditUsers)).Put("/{id}/roles", a.handleSetUserRoles)
				r.With(a.guard.RequirePermission(auth.PermEditUsers)).Post("/{id}/roles/{roleName}", a.handleAssignRole)
				r.With(a.guard.RequirePermission(auth.PermEditUsers)).Delete("/{id}/roles/{roleName}", a.handleRevokeRole)
			})

			r.Route("/roles", func(r chi.Router) {
				r.With(a.guard.RequirePermission(auth.PermViewRoles)).Get("/", a.handleListRoles)
				r.With(a.guard.RequirePermission(auth.PermCreateRoles)).Post("/", a.handleCreateRole)
				r.With(a.guard.RequirePermission(auth.PermViewRoles)).Get("/{id}", a.handleGetRole)
				r.With(a.guard.RequirePermission(auth.PermEditRoles)).Patch("/{id}", a.handleUpdateRole)
				r.With(a.guard.RequirePermission(auth.PermDeleteRoles)).Delete("/{id}", a.handleDeleteRole)

				r.With(a.guard.RequirePermission(auth.PermViewRoles)).Get("/{id}/permissions", a.handleRolePermissions)
				r.With(a.guard.RequirePermission(auth.PermEditRoles)).Put("/{id}/permissions", a.handleSetRolePermissions)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.With(a.guard.RequirePermission(auth.PermViewPermissions)).Get("/", a.handleListPermissions)
				r.With(a.guard.RequirePermission(auth.PermCreatePermissions)).Post("/", a.handleCreatePermission)
				r.With(a.guard.RequirePermission(auth.PermViewPermissions)).Get("/{name}", a.handleGetPermission)
				r.With(a.guard.RequirePermission(auth.PermDeletePermissions)).Delete("/{id}", a.handleDeletePermission)
			})
		})
	})

	return r
}
