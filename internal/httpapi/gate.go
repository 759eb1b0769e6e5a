package httpapi

import (
	"errors"
	"net/http"

	"personweb.org/internal/auth"
	"personweb.org/internal/obs"
)

// withGate runs every request through the request gate. Allowed
// requests continue with the principal (if any) and raw token attached
// to the context; denials terminate here with the rejection reason.
// No error escapes this boundary uncaught.
func (a *API) withGate(next http.Handler) http.Handler {
	if a.gate == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := a.gate.Authorize(r.Context(), r.Method, r.URL.Path, r.Header.Get("Authorization"))
		obs.AuthDecision(decision.Allowed, string(decision.Reason))

		if !decision.Allowed {
			a.logRejection(r, decision.Reason)
			if decision.Reason == auth.ReasonStoreUnavailable {
				writeError(w, r, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="personweb"`)
			writeError(w, r, http.StatusUnauthorized, string(decision.Reason))
			return
		}

		if decision.Principal == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.ContextWithPrincipal(r.Context(), *decision.Principal)
		if token := auth.BearerToken(r.Header.Get("Authorization")); token != "" {
			ctx = auth.ContextWithToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logRejection records denials that may indicate tampering or an
// account lifecycle race. Plain missing-token rejections are routine
// and stay out of the logs.
func (a *API) logRejection(r *http.Request, reason auth.Reason) {
	switch reason {
	case auth.ReasonUnauthenticated:
		return
	default:
		obs.Warn("auth_rejected", map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
			"reason":     string(reason),
		})
	}
}

// requirePermission loads the caller's authorization record and checks
// one permission key. Writes the response itself on failure and reports
// whether the handler may proceed.
func (a *API) requirePermission(w http.ResponseWriter, r *http.Request, perm string) bool {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="personweb"`)
		writeError(w, r, http.StatusUnauthorized, string(auth.ReasonUnauthenticated))
		return false
	}
	record, err := a.svc.Authorization(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "authorization unavailable")
			return false
		}
		writeError(w, r, http.StatusInternalServerError, "authorization error")
		return false
	}
	if !record.HasPermission(perm) {
		writeError(w, r, http.StatusForbidden, "permission denied")
		return false
	}
	return true
}
