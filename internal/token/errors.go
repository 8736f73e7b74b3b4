package token

import "errors"

// Sentinel errors for token operations.
var (
	// ErrInvalidToken indicates a token that failed signature or structural
	// verification.
	ErrInvalidToken = errors.New("token is invalid")

	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("token has expired")

	// ErrMalformedToken indicates a token missing required claims or not
	// parseable as a JWT.
	ErrMalformedToken = errors.New("token is malformed")

	// ErrServiceIdentityMismatch indicates a service token whose service
	// claim does not match the declared caller identity.
	ErrServiceIdentityMismatch = errors.New("service identity mismatch")

	// ErrInvalidTTL indicates a non-positive token lifetime.
	ErrInvalidTTL = errors.New("token TTL must be positive")
)
