package auth

import "errors"

// Sentinel errors for authentication and authorization.
var (
	// ErrAuthenticationRequired indicates that no credential was presented.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrInsufficientPermissions indicates that the principal's capability
	// set does not cover the route's required permissions.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
