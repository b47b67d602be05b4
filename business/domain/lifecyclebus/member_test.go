package lifecyclebus_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMember(addr string, r role.Role) lifecyclebus.NewMember {
	return lifecyclebus.NewMember{
		Name:     name.MustParse("Team Member"),
		Email:    email(addr),
		Password: password.MustParse("M3mber!"),
		Role:     r,
	}
}

func setupTenant(t *testing.T, h *harness) (tenantbus.Tenant, policybus.Caller) {
	t.Helper()

	tn, err := h.core.CreateTenant(context.Background(), h.super, primeRealty())
	require.NoError(t, err)

	return tn, h.adminOf(t)
}

func TestAddMemberByAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	m, err := h.core.AddMember(ctx, admin, tn.ID, newMember("uma@prime.test", role.User))
	require.NoError(t, err)
	assert.Equal(t, tn.ID, m.OrgID)
	assert.Equal(t, role.User, m.Role)
	assert.Equal(t, "uma@prime.test", m.Email)

	caller, err := h.core.Login(ctx, email("uma@prime.test"), "M3mber!")
	require.NoError(t, err)
	assert.Equal(t, role.User, caller.Role)

	_, err = h.core.AddMember(ctx, caller, tn.ID, newMember("pat@prime.test", role.Professional))
	assert.Equal(t, lifecyclebus.KindAuthorizationDenied, lifecyclebus.KindOf(err))
	assert.False(t, h.identityExists(t, "pat@prime.test"))
}

func TestAddMemberRefusesSuperAdminRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	_, err := h.core.AddMember(ctx, admin, tn.ID, newMember("x@prime.test", role.SuperAdmin))
	assert.Equal(t, lifecyclebus.KindAuthorizationDenied, lifecyclebus.KindOf(err))

	_, err = h.core.AddMember(ctx, h.super, tn.ID, newMember("x@prime.test", role.SuperAdmin))
	assert.Equal(t, lifecyclebus.KindValidationFailed, lifecyclebus.KindOf(err))

	assert.False(t, h.identityExists(t, "x@prime.test"))
}

func TestAddMemberCompensatesIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	h.memStore.failCreate = true

	_, err := h.core.AddMember(ctx, admin, tn.ID, newMember("uma@prime.test", role.User))
	assert.Equal(t, lifecyclebus.KindExternalStepFailed, lifecyclebus.KindOf(err))
	assert.False(t, h.identityExists(t, "uma@prime.test"))
}

func TestAddMemberDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	_, err := h.core.AddMember(ctx, admin, tn.ID, newMember("ana@prime.test", role.User))

	var le *lifecyclebus.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, lifecyclebus.KindValidationFailed, le.Kind)
	assert.Equal(t, "email", le.Field)
}

func TestChangeMemberRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	m, err := h.core.AddMember(ctx, admin, tn.ID, newMember("uma@prime.test", role.User))
	require.NoError(t, err)

	got, err := h.core.ChangeMemberRole(ctx, admin, m.PrincipalID, role.Professional)
	require.NoError(t, err)
	assert.Equal(t, role.Professional, got.Role)

	_, err = h.core.ChangeMemberRole(ctx, admin, admin.PrincipalID, role.User)
	assert.Equal(t, lifecyclebus.KindValidationFailed, lifecyclebus.KindOf(err))

	_, err = h.core.ChangeMemberRole(ctx, admin, uuid.New(), role.User)
	assert.Equal(t, lifecyclebus.KindValidationFailed, lifecyclebus.KindOf(err))
}

func TestAddSuperAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, admin := setupTenant(t, h)

	m, err := h.core.AddSuperAdmin(ctx, h.super, name.MustParse("Second Root"), email("root2@crm.test"), password.MustParse("r00t2!"))
	require.NoError(t, err)
	assert.Equal(t, role.SuperAdmin, m.Role)
	assert.Equal(t, uuid.Nil, m.OrgID)

	caller, err := h.core.Login(ctx, email("root2@crm.test"), "r00t2!")
	require.NoError(t, err)
	assert.Equal(t, role.SuperAdmin, caller.Role)

	t.Run("admin denied", func(t *testing.T) {
		_, err := h.core.AddSuperAdmin(ctx, admin, name.MustParse("Sneaky"), email("sneaky@prime.test"), password.MustParse("x"))
		require.Error(t, err)
		assert.Equal(t, lifecyclebus.KindAuthorizationDenied, lifecyclebus.KindOf(err))
		assert.False(t, h.identityExists(t, "sneaky@prime.test"))
	})

	t.Run("anonymous denied", func(t *testing.T) {
		_, err := h.core.AddSuperAdmin(ctx, policybus.Caller{}, name.MustParse("Anon"), email("anon@crm.test"), password.MustParse("x"))
		assert.Equal(t, lifecyclebus.KindAuthenticationMissing, lifecyclebus.KindOf(err))
	})

	t.Run("super admin removes another", func(t *testing.T) {
		require.NoError(t, h.core.RemoveMember(ctx, h.super, m.PrincipalID))
		assert.False(t, h.identityExists(t, "root2@crm.test"))
	})
}

func TestSeedSuperAdminOnlyBootstraps(t *testing.T) {
	h := newHarness(t)

	_, err := h.core.SeedSuperAdmin(context.Background(), name.MustParse("Other Root"), email("other@crm.test"), password.MustParse("r00t!"))
	require.Error(t, err)
	assert.ErrorIs(t, err, lifecyclebus.ErrSuperAdminExists)
	assert.Equal(t, lifecyclebus.KindValidationFailed, lifecyclebus.KindOf(err))
	assert.False(t, h.identityExists(t, "other@crm.test"))
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	m, err := h.core.AddMember(ctx, admin, tn.ID, newMember("uma@prime.test", role.User))
	require.NoError(t, err)

	require.NoError(t, h.core.RemoveMember(ctx, admin, m.PrincipalID))
	assert.False(t, h.identityExists(t, "uma@prime.test"))

	err = h.core.RemoveMember(ctx, admin, admin.PrincipalID)
	assert.Equal(t, lifecyclebus.KindValidationFailed, lifecyclebus.KindOf(err))

	err = h.core.RemoveMember(ctx, admin, h.super.PrincipalID)
	assert.Equal(t, lifecyclebus.KindAuthorizationDenied, lifecyclebus.KindOf(err))
}

func TestListMembersBlanksUnresolvedIdentities(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	m, err := h.core.AddMember(ctx, admin, tn.ID, newMember("uma@prime.test", role.User))
	require.NoError(t, err)
	require.NoError(t, h.identities.Delete(ctx, m.PrincipalID))

	members, err := h.core.ListMembers(ctx, admin, tn.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	byID := make(map[uuid.UUID]lifecyclebus.Member)
	for _, mb := range members {
		byID[mb.PrincipalID] = mb
	}

	assert.Equal(t, "ana@prime.test", byID[admin.PrincipalID].Email)
	assert.Empty(t, byID[m.PrincipalID].Email)
}

func TestCheckTenantActive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tn, admin := setupTenant(t, h)

	require.NoError(t, h.core.CheckTenantActive(ctx, admin))
	require.NoError(t, h.core.CheckTenantActive(ctx, h.super))

	_, err := h.core.SetTenantStatus(ctx, h.super, tn.ID, status.Blocked)
	require.NoError(t, err)

	err = h.core.CheckTenantActive(ctx, admin)
	assert.Equal(t, lifecyclebus.KindAuthenticationMissing, lifecyclebus.KindOf(err))

	_, err = h.core.SetTenantStatus(ctx, h.super, tn.ID, status.Active)
	require.NoError(t, err)

	stale := admin
	stale.Role = role.User
	err = h.core.CheckTenantActive(ctx, stale)
	assert.Equal(t, lifecyclebus.KindAuthenticationMissing, lifecyclebus.KindOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	setupTenant(t, h)

	_, err := h.core.Login(context.Background(), email("ana@prime.test"), "wrong")
	assert.Equal(t, lifecyclebus.KindAuthenticationMissing, lifecyclebus.KindOf(err))

	_, err = h.core.Login(context.Background(), email("nobody@prime.test"), "wrong")
	assert.Equal(t, lifecyclebus.KindAuthenticationMissing, lifecyclebus.KindOf(err))
}
