package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolver turns a bearer token into a Principal. Each call validates
// the token, loads the account, and cross-checks the claims against the
// current record, ending in exactly one of the rejection reasons or a
// resolved principal. No state is retained across calls, so a Resolver
// is safe for parallel use across requests.
type Resolver struct {
	validator *Validator
	store     CredentialStore
}

// NewResolver wires a validator and credential store into a Resolver.
func NewResolver(validator *Validator, store CredentialStore) *Resolver {
	return &Resolver{validator: validator, store: store}
}

// Resolve authenticates the token and returns the caller's principal.
//
// The account is always re-read from the credential store: a token that
// was valid at issuance is rejected here if the account has since been
// deleted (ErrUnknownAccount), disabled (ErrAccountDisabled), or renamed
// so the embedded username no longer matches (ErrClaimMismatch). The
// returned principal carries the store's current username, never the
// token claim.
func (r *Resolver) Resolve(ctx context.Context, token string) (Principal, error) {
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrUnauthenticated
	}

	claims, err := r.validator.Validate(token)
	if err != nil {
		return Principal{}, err
	}

	user, err := r.store.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnknownAccount
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user.Status != StatusActive {
		return Principal{}, ErrAccountDisabled
	}
	// Guards against tokens minted for a since-recreated account id.
	if user.Username != claims.Username {
		return Principal{}, ErrClaimMismatch
	}

	return Principal{
		UserID:   user.ID,
		Username: user.Username,
		Status:   user.Status,
	}, nil
}
