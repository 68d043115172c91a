// Package auth holds the authorization policy. Identity verification itself
// belongs to the external identity provider; this package only decides
// whether an already-authenticated principal may use the system.
package auth

import "strings"

// Policy is the fixed allow-list of principal identifiers. Membership is the
// entire authorization model: anyone authenticated but outside the list is
// refused and must be signed out.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a policy from the configured principal identifiers.
// Comparison is case-insensitive. An empty list denies everyone.
func NewPolicy(principals []string) *Policy {
	allowed := make(map[string]struct{}, len(principals))
	for _, p := range principals {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		allowed[p] = struct{}{}
	}
	return &Policy{allowed: allowed}
}

// Allow reports whether the principal is on the allow-list.
func (p *Policy) Allow(principal string) bool {
	principal = strings.ToLower(strings.TrimSpace(principal))
	if principal == "" {
		return false
	}
	_, ok := p.allowed[principal]
	return ok
}

// Size returns the number of permitted principals.
func (p *Policy) Size() int {
	return len(p.allowed)
}
