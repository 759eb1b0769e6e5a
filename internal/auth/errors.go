package auth

import "errors"

var (
	// Token-format failures. Always client-caused, never retried.
	ErrMalformedToken = errors.New("auth: malformed token")
	ErrBadSignature   = errors.New("auth: bad token signature")
	ErrTokenExpired   = errors.New("auth: token expired")

	// Identity-state failures.
	ErrUnauthenticated = errors.New("auth: no credentials presented")
	ErrUnknownAccount  = errors.New("auth: unknown account")
	ErrAccountDisabled = errors.New("auth: account disabled")
	ErrClaimMismatch   = errors.New("auth: token claims do not match account record")

	// Dependency failure. Transient; callers map it to a 5xx, never a 401.
	ErrStoreUnavailable = errors.New("auth: credential store unavailable")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
	ErrUnauthorized  = errors.New("auth: unauthorized")
)

// Reason is the stable rejection code surfaced to callers of the gate.
type Reason string

const (
	ReasonUnauthenticated  Reason = "unauthenticated"
	ReasonMalformedToken   Reason = "malformed_token"
	ReasonBadSignature     Reason = "bad_signature"
	ReasonExpired          Reason = "expired"
	ReasonUnknownAccount   Reason = "unknown_account"
	ReasonAccountDisabled  Reason = "account_disabled"
	ReasonClaimMismatch    Reason = "claim_mismatch"
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// ReasonForError maps a resolution error to its rejection reason.
// Unrecognized errors count as a store problem rather than an
// authentication verdict so they never silently turn into a 401.
func ReasonForError(err error) Reason {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return ReasonUnauthenticated
	case errors.Is(err, ErrMalformedToken):
		return ReasonMalformedToken
	case errors.Is(err, ErrBadSignature):
		return ReasonBadSignature
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrUnknownAccount):
		return ReasonUnknownAccount
	case errors.Is(err, ErrAccountDisabled):
		return ReasonAccountDisabled
	case errors.Is(err, ErrClaimMismatch):
		return ReasonClaimMismatch
	default:
		return ReasonStoreUnavailable
	}
}
