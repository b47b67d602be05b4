package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/keystore"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kid = "s4sKIjD9kIRjxs2tulPqGLdxSfgPErRN1Mu3Hd9k9NQ"

func newAuth(t *testing.T, issuer string) *auth.Auth {
	t.Helper()

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ks := keystore.New()
	_, err = ks.LoadByFileSystem(fstest.MapFS{kid + ".pem": {Data: []byte(keystore.EncodePrivateKey(pk))}})
	require.NoError(t, err)

	return auth.New(auth.Config{
		Log:       logger.New(io.Discard, logger.LevelInfo, "TEST", nil),
		KeyLookup: ks,
		ActiveKID: kid,
		Issuer:    issuer,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	a := newAuth(t, "crm-tenancy")

	want := policybus.Caller{PrincipalID: uuid.New(), Role: role.Admin, OrgID: uuid.New()}

	token, err := a.GenerateToken(want)
	require.NoError(t, err)

	claims, err := a.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)

	got, err := claims.Caller()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSuperAdminTokenHasNoOrg(t *testing.T) {
	a := newAuth(t, "crm-tenancy")

	token, err := a.GenerateToken(policybus.Caller{PrincipalID: uuid.New(), Role: role.SuperAdmin})
	require.NoError(t, err)

	claims, err := a.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Empty(t, claims.OrgID)

	got, err := claims.Caller()
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got.OrgID)
}

func TestAuthenticateRejects(t *testing.T) {
	a := newAuth(t, "crm-tenancy")
	other := newAuth(t, "someone-else")

	token, err := other.GenerateToken(policybus.Caller{PrincipalID: uuid.New(), Role: role.User, OrgID: uuid.New()})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer "+token)
	assert.Error(t, err)

	_, err = a.Authenticate(context.Background(), token)
	assert.Error(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer not.a.jwt")
	assert.Error(t, err)
}

func TestClaimsCallerChecksScope(t *testing.T) {
	claims := auth.Claims{Role: role.Admin.String()}
	claims.Subject = uuid.NewString()

	_, err := claims.Caller()
	assert.ErrorIs(t, err, auth.ErrInvalidScope)

	claims.Role = "owner"
	_, err = claims.Caller()
	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}
