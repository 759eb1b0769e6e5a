package auth

import "sort"

// Principal is the resolved identity of the caller for the duration of
// one request. Username always reflects the credential store record at
// resolution time, never the token claim.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// AuthorizationRecord holds the resolved role and permission sets for
// one user. Instances are treated as immutable once cached.
type AuthorizationRecord struct {
	Roles       map[string]struct{}
	Permissions map[string]struct{}
}

// NewAuthorizationRecord builds a record from raw name and key lists.
func NewAuthorizationRecord(roles, permissions []string) AuthorizationRecord {
	rec := AuthorizationRecord{
		Roles:       make(map[string]struct{}, len(roles)),
		Permissions: make(map[string]struct{}, len(permissions)),
	}
	for _, r := range roles {
		rec.Roles[r] = struct{}{}
	}
	for _, p := range permissions {
		rec.Permissions[p] = struct{}{}
	}
	return rec
}

// HasRole reports whether the record grants the named role.
func (r AuthorizationRecord) HasRole(name string) bool {
	_, ok := r.Roles[name]
	return ok
}

// HasPermission reports whether the record grants the permission key.
func (r AuthorizationRecord) HasPermission(key string) bool {
	_, ok := r.Permissions[key]
	return ok
}

// RoleNames returns the granted roles in sorted order.
func (r AuthorizationRecord) RoleNames() []string {
	return sortedKeys(r.Roles)
}

// PermissionKeys returns the granted permissions in sorted order.
func (r AuthorizationRecord) PermissionKeys() []string {
	return sortedKeys(r.Permissions)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
