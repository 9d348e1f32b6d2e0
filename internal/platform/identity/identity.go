package identity

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// PrincipalKey holds the stable identifier issued by the identity
	// provider for the authenticated caller.
	PrincipalKey contextKey = "principal"
	// RolesKey holds the caller's roles (patient, provider, admin).
	RolesKey contextKey = "roles"
)

// Claims are the delegation-token claims the gateway cares about. Subject is
// the principal text.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// PrincipalFromContext returns the authenticated principal, or "" when the
// request was anonymous.
func PrincipalFromContext(ctx context.Context) string {
	p, _ := ctx.Value(PrincipalKey).(string)
	return p
}

// RolesFromContext returns the caller's roles.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(RolesKey).([]string)
	return roles
}

// HasRole reports whether the context carries the given role.
func HasRole(ctx context.Context, role string) bool {
	for _, r := range RolesFromContext(ctx) {
		if r == role {
			return true
		}
	}
	return false
}
