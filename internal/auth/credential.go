package auth

import (
	"net/http"
	"strings"
)

// Headers consumed by the trust boundary.
const (
	// HeaderAuthorization carries end-user bearer tokens.
	HeaderAuthorization = "Authorization"

	// HeaderServiceToken carries service-to-service tokens.
	HeaderServiceToken = "X-Service-Token"

	// HeaderServiceName declares the calling service's identity, checked
	// against the token's service claim.
	HeaderServiceName = "X-Service-Name"
)

// bearerPrefix is the expected Authorization scheme.
const bearerPrefix = "Bearer "

// CredentialKind tags the credential variants a request may carry.
type CredentialKind int

// Credential kinds. Service credentials take precedence over user
// credentials; resolution happens exactly once per request.
const (
	// CredentialNone means no credential was presented.
	CredentialNone CredentialKind = iota

	// CredentialService means the X-Service-Token / X-Service-Name pair was
	// presented.
	CredentialService

	// CredentialUser means an Authorization bearer token was presented.
	CredentialUser
)

// Credential is the tagged union over the authentication material a request
// carries.
type Credential struct {
	Kind    CredentialKind
	Token   string
	Service string
}

// ExtractCredential resolves a request's headers to a single credential.
// The service pair wins over a bearer token so a broken service credential
// can never degrade to user authentication.
func ExtractCredential(r *http.Request) Credential {
	serviceToken := r.Header.Get(HeaderServiceToken)
	serviceName := r.Header.Get(HeaderServiceName)
	if serviceToken != "" && serviceName != "" {
		return Credential{
			Kind:    CredentialService,
			Token:   serviceToken,
			Service: serviceName,
		}
	}

	authorization := r.Header.Get(HeaderAuthorization)
	if bearer, found := strings.CutPrefix(authorization, bearerPrefix); found && bearer != "" {
		return Credential{
			Kind:  CredentialUser,
			Token: bearer,
		}
	}

	return Credential{Kind: CredentialNone}
}
