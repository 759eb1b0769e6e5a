package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"personweb.org/internal/auth"
)

func adminFixture(t *testing.T) (http.Handler, *memDirectory, string) {
	t.Helper()
	dir := newMemDirectory()
	dir.seedRole("role-admin", "admin", auth.PermManageUsers)
	dir.seedUser(t, "user-admin", "root", "s3cret", auth.StatusActive, "admin")
	handler := newTestAPI(t, dir)
	return handler, dir, loginToken(t, handler, "root", "s3cret")
}

func TestAdminCreateUser(t *testing.T) {
	handler, _, token := adminFixture(t)

	rr := doJSON(t, handler, http.MethodPost, "/api/admin/users", token,
		`{"username":"bob","password":"hunter2"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Location") == "" {
		t.Fatal("expected Location header")
	}
	var created auth.UserRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if created.Username != "bob" || created.Status != auth.StatusActive {
		t.Fatalf("unexpected user: %+v", created)
	}

	// The new account can log in immediately.
	loginToken(t, handler, "bob", "hunter2")
}

func TestAdminCreateUserRequiresPermission(t *testing.T) {
	dir := newMemDirectory()
	dir.seedUser(t, "user-1", "alice", "s3cret", auth.StatusActive)
	handler := newTestAPI(t, dir)

	token := loginToken(t, handler, "alice", "s3cret")
	rr := doJSON(t, handler, http.MethodPost, "/api/admin/users", token,
		`{"username":"bob","password":"hunter2"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without %s, got %d", auth.PermManageUsers, rr.Code)
	}
}

func TestAdminAssignRoleTakesEffectImmediately(t *testing.T) {
	handler, dir, token := adminFixture(t)
	dir.seedRole("role-editor", "editor", auth.PermManageArticles)
	dir.seedUser(t, "user-2", "bob", "hunter2", auth.StatusActive)

	bobToken := loginToken(t, handler, "bob", "hunter2")

	// Prime bob's cached authorization: no roles yet.
	rr := doJSON(t, handler, http.MethodGet, "/api/user/profile", bobToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/api/admin/users/user-2/roles", token,
		`{"role_id":"role-editor"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("assign: expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	// The invalidation hook makes the grant visible on the next request.
	rr = doJSON(t, handler, http.MethodGet, "/api/user/profile", bobToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", rr.Code)
	}
	var profile struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if len(profile.Roles) != 1 || profile.Roles[0] != "editor" {
		t.Fatalf("expected editor role after assignment, got %v", profile.Roles)
	}
}

func TestAdminRevokeRole(t *testing.T) {
	handler, dir, token := adminFixture(t)
	dir.seedRole("role-editor", "editor")
	dir.seedUser(t, "user-2", "bob", "hunter2", auth.StatusActive, "editor")

	rr := doJSON(t, handler, http.MethodDelete, "/api/admin/users/user-2/roles/role-editor", token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	roles, err := dir.Roles(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("Roles: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected no roles after revoke, got %v", roles)
	}
}

func TestAdminDisableUserBlocksTheirToken(t *testing.T) {
	handler, dir, token := adminFixture(t)
	dir.seedUser(t, "user-2", "bob", "hunter2", auth.StatusActive)

	bobToken := loginToken(t, handler, "bob", "hunter2")

	rr := doJSON(t, handler, http.MethodPut, "/api/admin/users/user-2/status", token,
		`{"status":"disabled"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodGet, "/api/user/profile", bobToken, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after disable, got %d", rr.Code)
	}
}

func TestAdminStatusRejectsUnknownValue(t *testing.T) {
	handler, dir, token := adminFixture(t)
	dir.seedUser(t, "user-2", "bob", "hunter2", auth.StatusActive)

	rr := doJSON(t, handler, http.MethodPut, "/api/admin/users/user-2/status", token,
		`{"status":"banned"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminCreateRoleAndSetPermissions(t *testing.T) {
	handler, dir, token := adminFixture(t)

	rr := doJSON(t, handler, http.MethodPost, "/api/admin/roles", token,
		`{"name":"moderator","description":"comment moderation"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create role: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var role auth.Role
	if err := json.Unmarshal(rr.Body.Bytes(), &role); err != nil {
		t.Fatalf("decode role: %v", err)
	}
	if role.ID == "" || role.Name != "moderator" {
		t.Fatalf("unexpected role: %+v", role)
	}

	rr = doJSON(t, handler, http.MethodPut, "/api/admin/roles/"+role.ID+"/permissions", token,
		`{"permissions":["`+auth.PermManageComments+`"]}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("set permissions: expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	dir.mu.Lock()
	perms := dir.rolePerms["moderator"]
	dir.mu.Unlock()
	if len(perms) != 1 || perms[0] != auth.PermManageComments {
		t.Fatalf("unexpected permissions: %v", perms)
	}
}

func TestAdminUnknownSubresource(t *testing.T) {
	handler, _, token := adminFixture(t)

	rr := doJSON(t, handler, http.MethodGet, "/api/admin/users/user-2/unknown", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAdminMethodNotAllowed(t *testing.T) {
	handler, _, token := adminFixture(t)

	rr := doJSON(t, handler, http.MethodGet, "/api/admin/users", token, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("unexpected Allow header: %q", rr.Header().Get("Allow"))
	}
}
