package auth

import (
	"net/http"

	"github.com/campushub/gateway/internal/observability"
	"github.com/campushub/gateway/internal/token"
)

// Gate authenticates requests and authorizes principals. Stateless per
// request; safe for concurrent use.
type Gate struct {
	codec   *token.Codec
	logger  observability.Logger
	metrics *Metrics
}

// GateOption is a functional option for configuring the gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger for the gate.
func WithGateLogger(logger observability.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithGateMetrics sets the metrics for the gate.
func WithGateMetrics(metrics *Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = metrics
	}
}

// NewGate creates a new authentication gate.
func NewGate(codec *token.Codec, opts ...GateOption) *Gate {
	g := &Gate{
		codec:  codec,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Authenticate resolves the request's credential and produces exactly one
// principal, or fails. A failed service credential is terminal: it never
// falls through to user authentication.
func (g *Gate) Authenticate(r *http.Request) (*Principal, error) {
	credential := ExtractCredential(r)

	switch credential.Kind {
	case CredentialService:
		claims, err := g.codec.VerifyServiceToken(credential.Token, credential.Service)
		if err != nil {
			g.metrics.RecordDecision("service", "denied")
			g.logger.Warn("service token rejected",
				observability.String("declared_service", credential.Service),
				observability.Error(err),
			)
			return nil, err
		}

		g.metrics.RecordDecision("service", "allowed")
		return &Principal{
			Type:        PrincipalTypeService,
			Subject:     claims.Service,
			Permissions: claims.Permissions,
		}, nil

	case CredentialUser:
		claims, err := g.codec.VerifyUserToken(credential.Token)
		if err != nil {
			g.metrics.RecordDecision("user", "denied")
			g.logger.Warn("user token rejected", observability.Error(err))
			return nil, err
		}

		g.metrics.RecordDecision("user", "allowed")
		return &Principal{
			Type:        PrincipalTypeUser,
			Subject:     claims.Subject,
			Email:       claims.Email,
			Roles:       claims.Roles,
			Permissions: claims.Permissions,
			TenantID:    claims.TenantID,
		}, nil

	default:
		g.metrics.RecordDecision("none", "denied")
		return nil, ErrAuthenticationRequired
	}
}

// Authorize checks that the principal's capability set covers every required
// permission. Service and user principals use the same check.
func (g *Gate) Authorize(principal *Principal, required []string) error {
	if !principal.HasAllPermissions(required...) {
		g.logger.Warn("permission check failed",
			observability.String("subject", principal.Subject),
			observability.String("type", string(principal.Type)),
			observability.Strings("required", required),
		)
		return ErrInsufficientPermissions
	}
	return nil
}
