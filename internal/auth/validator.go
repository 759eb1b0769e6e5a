package auth

import (
	"strings"
	"time"
)

// issuedAtSkew is how far into the future an issued_at claim may sit
// before the token is rejected. Covers ordinary clock drift between the
// issuer and this process; anything beyond it is treated as abuse.
const issuedAtSkew = 5 * time.Second

// Validator wraps the codec with structural checks the signature alone
// does not cover: required claims and the clock-skew guard on issued_at.
// Stateless, safe to call concurrently without synchronization.
type Validator struct {
	codec *Codec
	now   func() time.Time
}

// NewValidator builds a Validator sharing the codec's clock.
func NewValidator(codec *Codec) *Validator {
	return &Validator{codec: codec, now: codec.now}
}

// Validate decodes the token and rejects it when required claims are
// missing or issued_at lies in the future beyond the skew allowance.
func (v *Validator) Validate(token string) (*Claims, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Username) == "" {
		return nil, ErrMalformedToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}
	now := v.now().UTC()
	if claims.IssuedAt.Time.After(now.Add(issuedAtSkew)) {
		return nil, ErrMalformedToken
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
