package tenantbus_test

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus/stores/tenantmem"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCore() *tenantbus.Core {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	return tenantbus.NewCore(log, tenantmem.NewStore())
}

func TestCreateStartsActive(t *testing.T) {
	core := newCore()

	tn, err := core.Create(context.Background(), tenantbus.NewTenant{
		Name: name.MustParse("Acme"),
		Slug: slug.MustParse("acme"),
	})
	require.NoError(t, err)
	assert.True(t, tn.Status.Equal(status.Active))
	assert.True(t, tn.Features.IsZero())
}

func TestSetStatusIsIdempotent(t *testing.T) {
	ctx := context.Background()
	core := newCore()

	tn, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme"), Slug: slug.MustParse("acme")})
	require.NoError(t, err)

	blocked, err := core.SetStatus(ctx, tn, status.Blocked)
	require.NoError(t, err)

	again, err := core.SetStatus(ctx, blocked, status.Blocked)
	require.NoError(t, err)
	assert.Equal(t, blocked, again)

	got, err := core.QueryByID(ctx, tn.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Equal(status.Blocked))
}

func TestUpdateKeepsUntouchedFields(t *testing.T) {
	ctx := context.Background()
	core := newCore()
	wa := true

	tn, err := core.Create(ctx, tenantbus.NewTenant{
		Name:     name.MustParse("Acme"),
		Slug:     slug.MustParse("acme"),
		Features: features.Config{WhatsApp: &wa},
	})
	require.NoError(t, err)

	n := name.MustParse("Acme Ltda")
	up, err := core.Update(ctx, tn, tenantbus.UpdateTenant{Name: &n})
	require.NoError(t, err)

	assert.Equal(t, "Acme Ltda", up.Name.String())
	assert.Equal(t, "acme", up.Slug.String())
	assert.True(t, up.Features.WhatsAppEnabled())
}

func TestSlugAvailable(t *testing.T) {
	ctx := context.Background()
	core := newCore()

	tn, err := core.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme"), Slug: slug.MustParse("acme")})
	require.NoError(t, err)

	ok, err := core.SlugAvailable(ctx, slug.MustParse("acme"), tn.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = core.SlugAvailable(ctx, slug.MustParse("acme"), uuid.Nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = core.SlugAvailable(ctx, slug.MustParse("globex"), uuid.Nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
