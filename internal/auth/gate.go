package auth

import (
	"context"
	"net/http"
	"strings"

	"personweb.org/internal/policy"
)

const bearerPrefix = "Bearer "

// Decision is the terminal outcome of one authorization pass. Principal
// is nil for anonymous allows; Reason is set only on denials.
type Decision struct {
	Allowed   bool
	Principal *Principal
	Reason    Reason
}

func allow(p *Principal) Decision { return Decision{Allowed: true, Principal: p} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Gate is the per-request entry point. It consults the route policy
// table and applies the resolver only when the matched rule demands
// authentication. A pure function of its inputs apart from cache
// population inside the resolver's store lookups.
type Gate struct {
	policy   *policy.Table
	resolver *Resolver
}

// NewGate wires a policy table and resolver into a Gate.
func NewGate(table *policy.Table, resolver *Resolver) *Gate {
	return &Gate{policy: table, resolver: resolver}
}

// Authorize decides whether the request may proceed.
//
// CORS preflights pass through unconditionally: an OPTIONS request
// carries no credentials to check. Anonymous routes short-circuit
// before any token parsing, so an attached garbage token cannot turn a
// public read into a 401. Protected routes delegate to the resolver and
// translate its terminal error into a rejection reason.
func (g *Gate) Authorize(ctx context.Context, method, path, authorization string) Decision {
	if method == http.MethodOptions {
		return allow(nil)
	}
	if g.policy.RequirementFor(path) == policy.Anonymous {
		return allow(nil)
	}

	principal, err := g.resolver.Resolve(ctx, BearerToken(authorization))
	if err != nil {
		return deny(ReasonForError(err))
	}
	return allow(&principal)
}

// BearerToken extracts the token from an Authorization header value.
// Missing headers and non-bearer schemes yield the empty string, which
// the resolver treats as no credentials presented.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
