// Package auth implements the gateway's trust boundary: it resolves each
// request's credential to exactly one principal, or fails the request.
package auth

import (
	"context"
)

// PrincipalType distinguishes the two principal variants.
type PrincipalType string

// Principal types.
const (
	// PrincipalTypeUser is an end user authenticated via a bearer token.
	PrincipalTypeUser PrincipalType = "user"

	// PrincipalTypeService is an internal service authenticated via a
	// service-to-service token.
	PrincipalTypeService PrincipalType = "service"
)

// Principal is the normalized identity attached to an authenticated request.
// Produced fresh per request; never persisted.
type Principal struct {
	// Type is the principal variant.
	Type PrincipalType `json:"type"`

	// Subject is the user ID for user principals and the service name for
	// service principals.
	Subject string `json:"subject"`

	// Email is the user's email address. Empty for service principals.
	Email string `json:"email,omitempty"`

	// Roles are the user's assigned roles. Empty for service principals.
	Roles []string `json:"roles,omitempty"`

	// Permissions is the principal's capability set. Authorization is a
	// subset check over this set for both variants.
	Permissions []string `json:"permissions,omitempty"`

	// TenantID scopes user principals to a tenant.
	TenantID string `json:"tenant_id,omitempty"`
}

// HasPermission checks if the principal holds a specific permission.
func (p *Principal) HasPermission(permission string) bool {
	for _, held := range p.Permissions {
		if held == permission {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the principal holds every listed permission.
func (p *Principal) HasAllPermissions(permissions ...string) bool {
	for _, permission := range permissions {
		if !p.HasPermission(permission) {
			return false
		}
	}
	return true
}

// principalContextKey is the context key for principals.
type principalContextKey struct{}

// ContextWithPrincipal adds a principal to the context.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(*Principal)
	return principal, ok && principal != nil
}
