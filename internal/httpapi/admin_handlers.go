package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"personweb.org/internal/audit"
	"personweb.org/internal/auth"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Status   string `json:"status"`
}

type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requirePermission(w, r, auth.PermManageUsers) {
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = auth.StatusActive
	}
	if status != auth.StatusActive && status != auth.StatusDisabled {
		writeError(w, r, http.StatusBadRequest, "status must be active or disabled")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user := &auth.UserRecord{
		Username:     req.Username,
		PasswordHash: hash,
		Status:       status,
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, http.StatusInternalServerError, "create user failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.created", map[string]any{
		"target_user_id": user.ID,
		"username":       user.Username,
	})
	w.Header().Set("Location", fmt.Sprintf("/api/admin/users/%s", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

// handleAdminUserScoped dispatches /api/admin/users/{id}/... paths.
func (a *API) handleAdminUserScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	userID := parts[0]
	switch {
	case len(parts) == 2 && parts[1] == "roles":
		a.handleUserRoleAssign(w, r, userID)
	case len(parts) == 3 && parts[1] == "roles":
		a.handleUserRoleRevoke(w, r, userID, parts[2])
	case len(parts) == 2 && parts[1] == "status":
		a.handleUserStatus(w, r, userID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUserRoleAssign(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requirePermission(w, r, auth.PermManageUsers) {
		return
	}
	var req assignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.RoleID = strings.TrimSpace(req.RoleID)
	if req.RoleID == "" {
		writeError(w, r, http.StatusBadRequest, "role_id is required")
		return
	}
	if err := a.svc.AssignRole(r.Context(), userID, req.RoleID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "assign role failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.role.assigned", map[string]any{
		"target_user_id": userID,
		"role_id":        req.RoleID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUserRoleRevoke(w http.ResponseWriter, r *http.Request, userID, roleID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if !a.requirePermission(w, r, auth.PermManageUsers) {
		return
	}
	if err := a.svc.RevokeRole(r.Context(), userID, roleID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "revoke role failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.role.revoked", map[string]any{
		"target_user_id": userID,
		"role_id":        roleID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUserStatus(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.requirePermission(w, r, auth.PermManageUsers) {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.SetUserStatus(r.Context(), userID, strings.TrimSpace(req.Status)); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "user not found")
		default:
			writeError(w, r, http.StatusInternalServerError, "status update failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.user.status_changed", map[string]any{
		"target_user_id": userID,
		"status":         req.Status,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAdminRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requirePermission(w, r, auth.PermManageUsers) {
		return
	}
	var req createRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "role name is required")
		return
	}
	role := &auth.Role{Name: req.Name, Description: strings.TrimSpace(req.Description)}
	if err := a.store.CreateRole(r.Context(), role); err != nil {
		writeError(w, r, http.StatusInternalServerError, "create role failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.role.created", map[string]any{
		"role_id": role.ID,
		"name":    role.Name,
	})
	w.Header().Set("Location", fmt.Sprintf("/api/admin/roles/%s", role.ID))
	writeJSON(w, http.StatusCreated, role)
}

// handleAdminRoleScoped dispatches /api/admin/roles/{id}/... paths.
func (a *API) handleAdminRoleScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/roles/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "permissions" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	if !a.requirePermission(w, r, auth.PermManageUsers) {
		return
	}
	var req setPermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.SetRolePermissions(r.Context(), parts[0], req.Permissions); err != nil {
		writeError(w, r, http.StatusInternalServerError, "set permissions failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.role.permissions_changed", map[string]any{
		"role_id":     parts[0],
		"permissions": req.Permissions,
	})
	w.WriteHeader(http.StatusNoContent)
}
