package httpapi

import (
	"errors"
	"net/http"
	"time"

	"personweb.org/internal/audit"
	"personweb.org/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      auth.Principal `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, principal, err := a.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountDisabled):
			_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
				"username": truncate(req.Username, 32),
				"reason":   "account_disabled",
			})
			writeError(w, r, http.StatusUnauthorized, "account disabled")
		case errors.Is(err, auth.ErrUnauthorized):
			_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
				"username": truncate(req.Username, 32),
				"reason":   "bad_credentials",
			})
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, auth.ErrStoreUnavailable):
			writeError(w, r, http.StatusServiceUnavailable, "authentication unavailable")
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user_id":    principal.UserID,
		"username":   principal.Username,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt, User: principal})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, string(auth.ReasonUnauthenticated))
		return
	}
	a.svc.Logout(principal)
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
		"user_id": principal.UserID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, string(auth.ReasonUnauthenticated))
		return
	}
	token, expiresAt, err := a.svc.Refresh(principal)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token refresh failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user_id":    principal.UserID,
		"username":   principal.Username,
		"expires_at": expiresAt.Format(time.RFC3339),
		"refresh":    true,
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt, User: principal})
}

type profileResponse struct {
	User        auth.Principal `json:"user"`
	Roles       []string       `json:"roles"`
	Permissions []string       `json:"permissions"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, string(auth.ReasonUnauthenticated))
		return
	}
	record, err := a.svc.Authorization(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "authorization unavailable")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "authorization error")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		User:        principal,
		Roles:       record.RoleNames(),
		Permissions: record.PermissionKeys(),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
