package auth

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"personweb.org/internal/obs"
)

const defaultCacheSize = 4096

// Cache memoizes authorization records per user id. Entries live until
// explicitly invalidated (logout, role assignment change, status
// change), never by TTL, so a cached record is stale only between an
// administrative action and its invalidation hook running. The LRU
// bound exists to keep memory flat; eviction merely forces a re-fetch
// on the next request and can never serve stale data.
type Cache struct {
	store   CredentialStore
	entries *lru.Cache[string, AuthorizationRecord]

	// Serializes the compute path so concurrent misses for the same
	// user do not both hit the store. Lookups are two cheap queries,
	// a single guard is enough.
	computeMu sync.Mutex
}

// NewCache builds a Cache over the credential store. size <= 0 selects
// the default capacity.
func NewCache(store CredentialStore, size int) (*Cache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, AuthorizationRecord](size)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, entries: entries}, nil
}

// Get returns the cached authorization record for the user, computing
// it from the credential store on a miss.
func (c *Cache) Get(ctx context.Context, userID string) (AuthorizationRecord, error) {
	if rec, ok := c.entries.Get(userID); ok {
		obs.AuthCacheHit()
		return rec, nil
	}
	obs.AuthCacheMiss()

	c.computeMu.Lock()
	defer c.computeMu.Unlock()
	if rec, ok := c.entries.Get(userID); ok {
		return rec, nil
	}

	roles, err := c.store.Roles(ctx, userID)
	if err != nil {
		return AuthorizationRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	perms, err := c.store.Permissions(ctx, userID)
	if err != nil {
		return AuthorizationRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	rec := NewAuthorizationRecord(roles, perms)
	c.entries.Add(userID, rec)
	return rec, nil
}

// Invalidate drops the cached record for one user. Called on logout and
// on any administrative role or status change for that user.
func (c *Cache) Invalidate(userID string) {
	c.entries.Remove(userID)
}

// Purge drops every cached record. Used when a role's permission set
// changes, which can affect an unknown number of users at once.
func (c *Cache) Purge() {
	c.entries.Purge()
}
