package commands_test

import (
	"context"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/api/tooling/admin/commands"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/buses"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
	"github.com/jcpaschoal/crm-tenancy/foundation/keystore"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStack(t *testing.T) (buses.Buses, policybus.Caller) {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	b, err := buses.New(buses.Config{Log: log})
	require.NoError(t, err)

	ctx := context.Background()

	m, err := b.Lifecycle.SeedSuperAdmin(ctx, name.MustParse("Root"), mail.Address{Address: "root@crm.test"}, password.MustParse("r00t!pass"))
	require.NoError(t, err)

	op, err := commands.Operator(ctx, b.Lifecycle, m.PrincipalID.String())
	require.NoError(t, err)

	return b, op
}

func TestGenKey(t *testing.T) {
	dir := t.TempDir()

	kid, err := commands.GenKey(dir)
	require.NoError(t, err)

	ks := keystore.New()
	n, err := ks.LoadByFileSystem(os.DirFS(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ks.PrivateKey(kid)
	assert.NoError(t, err)
}

func TestOperatorMustBeSuperAdmin(t *testing.T) {
	b, _ := newStack(t)
	ctx := context.Background()

	_, err := commands.Operator(ctx, b.Lifecycle, "")
	assert.Error(t, err)

	_, err = commands.Operator(ctx, b.Lifecycle, uuid.NewString())
	assert.Error(t, err)
}

func TestSuperAdminCommands(t *testing.T) {
	b, op := newStack(t)
	ctx := context.Background()

	err := commands.SeedSuperAdmin(ctx, b.Lifecycle, "Other Root", "other@crm.test", "r00t!pass")
	require.Error(t, err)

	id, err := commands.AddSuperAdmin(ctx, b.Lifecycle, op, "Night Shift", "night@crm.test", "N1ght!pass")
	require.NoError(t, err)

	second, err := commands.Operator(ctx, b.Lifecycle, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, second.PrincipalID)

	_, err = commands.AddSuperAdmin(ctx, b.Lifecycle, op, "Night Shift", "not-an-email", "N1ght!pass")
	assert.Error(t, err)
}

func TestTenantCommands(t *testing.T) {
	b, op := newStack(t)
	ctx := context.Background()

	orgID, err := commands.CreateTenant(ctx, b.Lifecycle, op, commands.NewTenant{
		Name:          "Prime Realty",
		AdminName:     "Ana Souza",
		AdminEmail:    "ana@prime.test",
		AdminPassword: "Adm1n!pass",
	})
	require.NoError(t, err)

	ts, err := b.Lifecycle.QueryTenant(ctx, op, orgID)
	require.NoError(t, err)
	assert.Equal(t, "prime-realty", ts.Slug.String())

	require.NoError(t, commands.SetStatus(ctx, b.Lifecycle, op, orgID.String(), "inactive"))

	ts, err = b.Lifecycle.QueryTenant(ctx, op, orgID)
	require.NoError(t, err)
	assert.True(t, ts.Status.Equal(status.Inactive))

	path := filepath.Join(t.TempDir(), "tenants.xlsx")
	got, err := commands.ExportTenants(ctx, b.Lifecycle, op, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.FileExists(t, path)

	require.NoError(t, commands.DeleteTenant(ctx, b.Lifecycle, op, orgID.String()))

	_, err = b.Lifecycle.QueryTenant(ctx, op, orgID)
	assert.Error(t, err)
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	b, op := newStack(t)

	err := commands.SetStatus(context.Background(), b.Lifecycle, op, uuid.NewString(), "paused")
	assert.Error(t, err)
}
