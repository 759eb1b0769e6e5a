package auth

import (
	"context"
	"time"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// UserRecord is the credential store's view of an account.
type UserRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role groups permissions.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission is a fine-grained capability key.
type Permission struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CredentialStore is the read-side adapter the auth core consults.
// The core never mutates the store through this interface; lookups
// return ErrNotFound for missing accounts and wrap anything transient
// so the resolver can surface ErrStoreUnavailable.
type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*UserRecord, error)
	FindUserByID(ctx context.Context, id string) (*UserRecord, error)
	Roles(ctx context.Context, userID string) ([]string, error)
	Permissions(ctx context.Context, userID string) ([]string, error)
}

// Directory extends the credential store with the administrative writes
// the HTTP layer drives. Role and status changes feed the cache
// invalidation hooks; the auth core itself only ever reads.
type Directory interface {
	CredentialStore

	CreateUser(ctx context.Context, u *UserRecord) error
	UpdateUserStatus(ctx context.Context, userID, status string) error

	CreateRole(ctx context.Context, role *Role) error
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	AssignRole(ctx context.Context, userID, roleID string) error
	RevokeRole(ctx context.Context, userID, roleID string) error

	EnsurePermissions(ctx context.Context, perms []Permission) error
	SetRolePermissions(ctx context.Context, roleID string, permissionKeys []string) error
}
