package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/gateway/internal/token"
)

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec("user-secret-for-tests", "service-secret-for-tests")
	require.NoError(t, err)
	return codec
}

func signUserToken(t *testing.T, codec *token.Codec, claims token.UserClaims) string {
	t.Helper()

	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	raw, err := codec.SignUserToken(claims)
	require.NoError(t, err)
	return raw
}

func TestGate_Authenticate_User(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	gate := NewGate(codec)

	raw := signUserToken(t, codec, token.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
		Email:            "admin@school.example",
		Roles:            []string{"admin"},
		Permissions:      []string{"fees:access"},
		TenantID:         "tenant-a",
	})

	r := httptest.NewRequest("GET", "/api/v1/fees", nil)
	r.Header.Set(HeaderAuthorization, "Bearer "+raw)

	principal, err := gate.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, PrincipalTypeUser, principal.Type)
	assert.Equal(t, "user-42", principal.Subject)
	assert.Equal(t, "tenant-a", principal.TenantID)
	assert.True(t, principal.HasPermission("fees:access"))
}

func TestGate_Authenticate_Service(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	gate := NewGate(codec)

	raw, err := codec.IssueServiceToken("fees", []string{"students:read"}, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/v1/students", nil)
	r.Header.Set(HeaderServiceToken, raw)
	r.Header.Set(HeaderServiceName, "fees")

	principal, err := gate.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, PrincipalTypeService, principal.Type)
	assert.Equal(t, "fees", principal.Subject)
	assert.Empty(t, principal.TenantID)
}

func TestGate_Authenticate_ServiceMismatch(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	gate := NewGate(codec)

	raw, err := codec.IssueServiceToken("fees", nil, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/v1/students", nil)
	r.Header.Set(HeaderServiceToken, raw)
	r.Header.Set(HeaderServiceName, "students")

	_, err = gate.Authenticate(r)
	assert.ErrorIs(t, err, token.ErrServiceIdentityMismatch)
}

func TestGate_Authenticate_BadServiceTokenNoUserFallback(t *testing.T) {
	t.Parallel()

	// A broken service credential is terminal even when a valid bearer token
	// rides along on the same request.
	codec := newTestCodec(t)
	gate := NewGate(codec)

	userRaw := signUserToken(t, codec, token.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-42"},
	})

	r := httptest.NewRequest("GET", "/api/v1/students", nil)
	r.Header.Set(HeaderServiceToken, "garbage")
	r.Header.Set(HeaderServiceName, "fees")
	r.Header.Set(HeaderAuthorization, "Bearer "+userRaw)

	_, err := gate.Authenticate(r)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthenticationRequired)
}

func TestGate_Authenticate_NoCredential(t *testing.T) {
	t.Parallel()

	gate := NewGate(newTestCodec(t))

	r := httptest.NewRequest("GET", "/api/v1/students", nil)
	_, err := gate.Authenticate(r)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestGate_Authorize(t *testing.T) {
	t.Parallel()

	gate := NewGate(newTestCodec(t))
	principal := &Principal{
		Type:        PrincipalTypeUser,
		Subject:     "user-42",
		Permissions: []string{"students:read", "fees:access"},
	}

	assert.NoError(t, gate.Authorize(principal, nil))
	assert.NoError(t, gate.Authorize(principal, []string{"fees:access"}))
	assert.NoError(t, gate.Authorize(principal, []string{"students:read", "fees:access"}))

	err := gate.Authorize(principal, []string{"fees:access", "reports:read"})
	assert.ErrorIs(t, err, ErrInsufficientPermissions)
}
