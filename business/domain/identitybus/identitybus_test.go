package identitybus_test

import (
	"context"
	"io"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus/stores/identitylocal"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/usermem"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalCore(t *testing.T) *identitybus.Core {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	userBus := userbus.NewCore(log, usermem.NewStore())

	return identitybus.NewCore(log, identitylocal.NewStore(userBus), identitybus.WithCallTimeout(time.Second))
}

func newIdentity(email string) identitybus.NewIdentity {
	return identitybus.NewIdentity{
		Name:     name.MustParse("Jane Doe"),
		Email:    mail.Address{Address: email},
		Password: password.MustParse("S3cret!23"),
		Verified: true,
	}
}

func TestLocalLifecycle(t *testing.T) {
	core := newLocalCore(t)
	ctx := context.Background()

	idn, err := core.Create(ctx, newIdentity("jane@prime.test"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", idn.Name)
	assert.True(t, idn.Verified)

	_, err = core.Create(ctx, newIdentity("jane@prime.test"))
	assert.ErrorIs(t, err, identitybus.ErrEmailExists)

	got, err := core.QueryByEmail(ctx, mail.Address{Address: "jane@prime.test"})
	require.NoError(t, err)
	assert.Equal(t, idn.ID, got.ID)

	pw := password.MustParse("N3w-pass")
	_, err = core.Update(ctx, idn.ID, identitybus.UpdateIdentity{Password: &pw})
	require.NoError(t, err)

	_, err = core.Authenticate(ctx, mail.Address{Address: "jane@prime.test"}, "S3cret!23")
	assert.ErrorIs(t, err, identitybus.ErrAuthenticationFailure)

	_, err = core.Authenticate(ctx, mail.Address{Address: "jane@prime.test"}, "N3w-pass")
	require.NoError(t, err)

	require.NoError(t, core.Delete(ctx, idn.ID))

	_, err = core.QueryByEmail(ctx, mail.Address{Address: "jane@prime.test"})
	assert.ErrorIs(t, err, identitybus.ErrNotFound)

	assert.ErrorIs(t, core.Delete(ctx, idn.ID), identitybus.ErrNotFound)
}

type slowStore struct {
	identitybus.Storer
}

func (slowStore) QueryByID(ctx context.Context, id uuid.UUID) (identitybus.Identity, error) {
	<-ctx.Done()
	return identitybus.Identity{}, ctx.Err()
}

func TestCallTimeout(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	core := identitybus.NewCore(log, slowStore{}, identitybus.WithCallTimeout(20*time.Millisecond))

	_, err := core.QueryByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
