package userbus_test

import (
	"context"
	"io"
	"net/mail"
	"testing"
	"time"

	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/usermem"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCore(t *testing.T) *userbus.Core {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	store := usercache.NewStore(log, usermem.NewStore(), time.Minute)

	return userbus.NewCore(log, store)
}

func newUser(email string) userbus.NewUser {
	return userbus.NewUser{
		Name:     name.MustParse("Jane Doe"),
		Email:    mail.Address{Address: email},
		Password: password.MustParse("S3cret!23"),
		Verified: true,
	}
}

func TestCreateNormalizesEmail(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	usr, err := core.Create(ctx, newUser("  Jane@Prime.TEST "))
	require.NoError(t, err)
	assert.Equal(t, "jane@prime.test", usr.Email.Address)
	assert.True(t, usr.Enabled)
	assert.NotEqual(t, []byte("S3cret!23"), usr.PasswordHash)

	got, err := core.QueryByEmail(ctx, mail.Address{Address: "JANE@prime.test"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
}

func TestCreateDuplicateEmail(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	_, err := core.Create(ctx, newUser("jane@prime.test"))
	require.NoError(t, err)

	_, err = core.Create(ctx, newUser("jane@prime.test"))
	assert.ErrorIs(t, err, userbus.ErrUniqueEmail)
}

func TestAuthenticate(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	usr, err := core.Create(ctx, newUser("jane@prime.test"))
	require.NoError(t, err)

	got, err := core.Authenticate(ctx, mail.Address{Address: "jane@prime.test"}, "S3cret!23")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = core.Authenticate(ctx, mail.Address{Address: "jane@prime.test"}, "wrong")
	assert.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	_, err = core.Authenticate(ctx, mail.Address{Address: "nobody@prime.test"}, "S3cret!23")
	assert.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	disabled := false
	_, err = core.Update(ctx, usr, userbus.UpdateUser{Enabled: &disabled})
	require.NoError(t, err)

	_, err = core.Authenticate(ctx, mail.Address{Address: "jane@prime.test"}, "S3cret!23")
	assert.ErrorIs(t, err, userbus.ErrAuthenticationFailure)
}

func TestUpdateEmailEvictsOldCacheEntry(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	usr, err := core.Create(ctx, newUser("jane@prime.test"))
	require.NoError(t, err)

	email := mail.Address{Address: "jane.doe@prime.test"}
	pw := password.MustParse("N3w-pass")
	_, err = core.Update(ctx, usr, userbus.UpdateUser{Email: &email, Password: &pw})
	require.NoError(t, err)

	_, err = core.QueryByEmail(ctx, mail.Address{Address: "jane@prime.test"})
	assert.ErrorIs(t, err, userbus.ErrNotFound)

	_, err = core.Authenticate(ctx, email, "N3w-pass")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	usr, err := core.Create(ctx, newUser("jane@prime.test"))
	require.NoError(t, err)

	require.NoError(t, core.Delete(ctx, usr))

	_, err = core.QueryByID(ctx, usr.ID)
	assert.ErrorIs(t, err, userbus.ErrNotFound)

	assert.ErrorIs(t, core.Delete(ctx, usr), userbus.ErrNotFound)
}
