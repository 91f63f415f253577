package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
)

type createPermissionRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.svc.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if perms == nil {
		perms = []auth.Permission{}
	}
	writeJSON(w, http.StatusOK, perms)
}

func (a *API) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	perm, err := a.svc.CreatePermission(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "permission.create", map[string]any{"permission": perm.Name})
	writeJSON(w, http.StatusCreated, perm)
}

func (a *API) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := a.svc.GetPermission(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perm)
}

func (a *API) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.DeletePermission(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	audit.LogEvent(r.Context(), "permission.delete", map[string]any{"permission_id": id})
	writeJSON(w, http.StatusNoContent, nil)
}
