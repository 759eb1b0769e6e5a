package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultTokenTTL = 24 * time.Hour

// Service bundles the auth components the HTTP layer drives: credential
// login, token issuance, and the cache invalidation hooks tied to
// logout and administrative changes.
type Service struct {
	store Directory
	codec *Codec
	cache *Cache
	ttl   time.Duration
}

// NewService constructs a Service. ttl <= 0 selects the default token
// lifetime of 24 hours.
func NewService(store Directory, codec *Codec, cache *Cache, ttl time.Duration) (*Service, error) {
	if store == nil || codec == nil || cache == nil {
		return nil, errors.New("auth: store, codec and cache are required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{store: store, codec: codec, cache: cache, ttl: ttl}, nil
}

// Login verifies username/password credentials and issues a token.
// Unknown accounts and wrong passwords both come back as
// ErrUnauthorized so the response does not leak which one it was;
// disabled accounts are refused before the password check runs.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, Principal{}, ErrUnauthorized
	}
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, Principal{}, ErrUnauthorized
		}
		return "", time.Time{}, Principal{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user.Status != StatusActive {
		return "", time.Time{}, Principal{}, ErrAccountDisabled
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, Principal{}, ErrUnauthorized
	}

	token, expiresAt, err := s.codec.Issue(user.ID, user.Username, s.ttl)
	if err != nil {
		return "", time.Time{}, Principal{}, err
	}
	principal := Principal{UserID: user.ID, Username: user.Username, Status: user.Status}
	return token, expiresAt, principal, nil
}

// Refresh issues a fresh token for an already-resolved principal.
func (s *Service) Refresh(principal Principal) (string, time.Time, error) {
	return s.codec.Issue(principal.UserID, principal.Username, s.ttl)
}

// Logout drops the principal's cached authorization. The token itself
// stays cryptographically valid until expiry; revocation here means the
// next request re-reads roles and permissions from the store.
func (s *Service) Logout(principal Principal) {
	s.cache.Invalidate(principal.UserID)
}

// Authorization returns the cached roles and permissions for a user.
func (s *Service) Authorization(ctx context.Context, userID string) (AuthorizationRecord, error) {
	return s.cache.Get(ctx, userID)
}

// AssignRole grants a role to a user and invalidates their cached
// authorization so the new role is visible on the next request.
func (s *Service) AssignRole(ctx context.Context, userID, roleID string) error {
	if err := s.store.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

// RevokeRole removes a role from a user and invalidates their cached
// authorization.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID string) error {
	if err := s.store.RevokeRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

// SetUserStatus flips an account between active and disabled and
// invalidates the cached authorization. Disabling takes effect on the
// user's very next request even though their token is still unexpired.
func (s *Service) SetUserStatus(ctx context.Context, userID, status string) error {
	if status != StatusActive && status != StatusDisabled {
		return fmt.Errorf("%w: status must be %q or %q", ErrInvalidInput, StatusActive, StatusDisabled)
	}
	if err := s.store.UpdateUserStatus(ctx, userID, status); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

// SetRolePermissions replaces a role's permission set. Any user may
// hold the role, so the whole cache is purged rather than guessing.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, keys []string) error {
	if err := s.store.SetRolePermissions(ctx, roleID, keys); err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}

// EnsureBuiltins makes sure the predefined permission catalog exists.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	return s.store.EnsurePermissions(ctx, BuiltinPermissions)
}
