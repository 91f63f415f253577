package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
)

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=1"`
	Permissions []string `json:"permissions"`
}

type updateRoleRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

type setRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required"`
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.svc.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if roles == nil {
		roles = []auth.Role{}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, err := a.svc.CreateRole(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(req.Permissions) > 0 {
		if err := a.svc.SetRolePermissions(r.Context(), role.ID, req.Permissions); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	audit.LogEvent(r.Context(), "role.create", map[string]any{"role": role.Name})
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := a.svc.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	role, err := a.svc.UpdateRole(r.Context(), id, auth.RoleUpdate{Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "role.update", map[string]any{"role_id": id})
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.DeleteRole(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "role.delete", map[string]any{"role_id": id})
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.svc.RolePermissions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if perms == nil {
		perms = []auth.Permission{}
	}
	writeJSON(w, http.StatusOK, perms)
}

func (a *API) handleSetRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req setRolePermissionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.svc.SetRolePermissions(r.Context(), id, req.Permissions); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "role.permissions.sync", map[string]any{
		"role_id":     id,
		"permissions": req.Permissions,
	})
	writeJSON(w, http.StatusNoContent, nil)
}
