package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
)

type createUserRequest struct {
	Name     string   `json:"name" validate:"required,min=2"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Roles    []string `json:"roles"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

type setUserRolesRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := auth.UserQuery{Search: r.URL.Query().Get("q")}
	if v := r.URL.Query().Get("page"); v != "" {
		query.Page, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		query.PerPage, _ = strconv.Atoi(v)
	}
	page, err := a.svc.ListUsers(r.Context(), query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleCreateUser is the administrative counterpart of handleRegister: the
// caller needs the create capability and may assign roles in the same call.
func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(req.Roles) > 0 {
		if err := a.svc.SetUserRoles(r.Context(), user.ID, req.Roles); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	audit.LogEvent(r.Context(), "user.create", map[string]any{
		"user_id": user.ID,
		"roles":   req.Roles,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	user, err := a.svc.UpdateUser(r.Context(), id, auth.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "user.update", map[string]any{"user_id": id})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "user.delete", map[string]any{"user_id": id})
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleUserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.svc.UserRoles(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if roles == nil {
		roles = []auth.Role{}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleSetUserRoles(w http.ResponseWriter, r *http.Request) {
	var req setUserRolesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.svc.SetUserRoles(r.Context(), id, req.Roles); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "user.roles.replace", map[string]any{
		"user_id": id,
		"roles":   req.Roles,
	})
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	roleName := chi.URLParam(r, "roleName")
	if err := a.svc.AssignRole(r.Context(), id, roleName); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "user.roles.assign", map[string]any{
		"user_id": id,
		"role":    roleName,
	})
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	roleName := chi.URLParam(r, "roleName")
	if err := a.svc.RevokeRole(r.Context(), id, roleName); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "user.roles.revoke", map[string]any{
		"user_id": id,
		"role":    roleName,
	})
	writeJSON(w, http.StatusNoContent, nil)
}
