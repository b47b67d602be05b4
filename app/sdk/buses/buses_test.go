package buses_test

import (
	"context"
	"io"
	"net/mail"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/buses"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStack(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	b, err := buses.New(buses.Config{Log: log})
	require.NoError(t, err)
	require.NotNil(t, b.Lifecycle)

	ctx := context.Background()
	email := mail.Address{Address: "root@crm.test"}

	_, err = b.Lifecycle.SeedSuperAdmin(ctx, name.MustParse("Root"), email, password.MustParse("s3cret!"))
	require.NoError(t, err)

	caller, err := b.Lifecycle.Login(ctx, email, "s3cret!")
	require.NoError(t, err)
	assert.True(t, caller.Role.Equal(role.SuperAdmin))
}

func TestIdentityProviderSelection(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	_, err := buses.New(buses.Config{Log: log, IdentityProvider: "ldap"})
	assert.Error(t, err)

	_, err = buses.New(buses.Config{Log: log, IdentityProvider: buses.ProviderGoTrue})
	assert.Error(t, err)
}
