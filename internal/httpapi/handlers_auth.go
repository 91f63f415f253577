package httpapi

import (
	"net/http"
	"time"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal any       `json:"principal"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "auth.register", map[string]any{"user_id": user.ID})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, expiresAt, principal, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{"email": req.Email})
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "auth.login", map[string]any{"user_id": principal.User.ID})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: principalPayload(principal),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, principalPayload(principal))
}

// principalPayload flattens a principal for API responses: the user record,
// role names, and the sorted effective permission set.
func principalPayload(p auth.Principal) map[string]any {
	roles := make([]string, 0, len(p.Roles))
	for _, role := range p.Roles {
		roles = append(roles, role.Name)
	}
	return map[string]any{
		"user":        p.User,
		"roles":       roles,
		"permissions": p.PermissionSet(),
	}
}
