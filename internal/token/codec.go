// Package token signs and verifies the two JWT families the gateway
// understands: end-user tokens issued by the auth service, and
// service-to-service tokens issued by the gateway itself. The two families
// use distinct HMAC secrets and claim shapes.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultServiceTokenTTL is the default lifetime of issued service tokens.
const DefaultServiceTokenTTL = time.Hour

// signingMethod is the only accepted algorithm for both token families.
var signingMethod = jwt.SigningMethodHS256

// UserClaims are the claims carried by an end-user token.
type UserClaims struct {
	jwt.RegisteredClaims

	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TenantID    string   `json:"tenant_id,omitempty"`
}

// ServiceClaims are the claims carried by a service-to-service token.
type ServiceClaims struct {
	jwt.RegisteredClaims

	Service     string   `json:"service"`
	Permissions []string `json:"permissions,omitempty"`
}

// Codec encodes and decodes both token families.
type Codec struct {
	userSecret    []byte
	serviceSecret []byte
	defaultTTL    time.Duration
	now           func() time.Time
}

// CodecOption is a functional option for configuring the codec.
type CodecOption func(*Codec)

// WithDefaultServiceTokenTTL sets the default lifetime for issued service
// tokens.
func WithDefaultServiceTokenTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.defaultTTL = ttl
	}
}

// WithTimeSource sets the clock used for issuance and verification.
func WithTimeSource(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a new token codec. The two secrets must be non-empty and
// distinct.
func NewCodec(userSecret, serviceSecret string, opts ...CodecOption) (*Codec, error) {
	if userSecret == "" || serviceSecret == "" {
		return nil, fmt.Errorf("both token secrets are required")
	}
	if userSecret == serviceSecret {
		return nil, fmt.Errorf("user and service token secrets must differ")
	}

	c := &Codec{
		userSecret:    []byte(userSecret),
		serviceSecret: []byte(serviceSecret),
		defaultTTL:    DefaultServiceTokenTTL,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// DefaultTTL returns the default lifetime for issued service tokens.
func (c *Codec) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// VerifyUserToken decodes and validates an end-user token.
func (c *Codec) VerifyUserToken(raw string) (*UserClaims, error) {
	claims := &UserClaims{}
	if err := c.parse(raw, claims, c.userSecret); err != nil {
		return nil, err
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrMalformedToken)
	}

	return claims, nil
}

// VerifyServiceToken decodes and validates a service-to-service token and
// checks that its service claim matches the identity the caller declared.
// A mismatch is a distinct failure, never silently accepted.
func (c *Codec) VerifyServiceToken(raw, expectedService string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	if err := c.parse(raw, claims, c.serviceSecret); err != nil {
		return nil, err
	}

	if claims.Service == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrMalformedToken)
	}

	if claims.Service != expectedService {
		return nil, fmt.Errorf("%w: token issued for %q, presented as %q",
			ErrServiceIdentityMismatch, claims.Service, expectedService)
	}

	return claims, nil
}

// IssueServiceToken builds and signs a service token. A zero ttl selects the
// codec's default; a negative ttl is rejected.
func (c *Codec) IssueServiceToken(service string, permissions []string, ttl time.Duration) (string, error) {
	if service == "" {
		return "", fmt.Errorf("service name is required")
	}
	if ttl < 0 {
		return "", ErrInvalidTTL
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	now := c.now().UTC()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Service:     service,
		Permissions: permissions,
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.serviceSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	return signed, nil
}

// parse decodes a token against a secret and maps library errors onto the
// package's sentinel errors. Expiry is checked in UTC with no leeway; strict
// expiry is intentional.
func (c *Codec) parse(raw string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return fmt.Errorf("%w: %w", ErrExpiredToken, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return fmt.Errorf("%w: %w", ErrMalformedToken, err)
		default:
			return fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}

// SignUserToken signs a user token. Production user tokens are issued by the
// external auth service; this is exported for tests and tooling that need a
// well-formed token against the shared secret.
func (c *Codec) SignUserToken(claims UserClaims) (string, error) {
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.userSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign user token: %w", err)
	}
	return signed, nil
}
