package featurebus_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus/stores/featurecache"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus/stores/tenantmem"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	featurebus.Storer
	reads int
}

func (s *countingStore) QueryFeatures(ctx context.Context, tenantID uuid.UUID) (features.Config, error) {
	s.reads++
	return s.Storer.QueryFeatures(ctx, tenantID)
}

func setup(t *testing.T) (*featurebus.Core, *countingStore, tenantbus.Tenant) {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	mem := tenantmem.NewStore()

	tn, err := tenantbus.NewCore(log, mem).Create(context.Background(), tenantbus.NewTenant{
		Name: name.MustParse("Prime Realty"),
		Slug: slug.MustParse("prime-realty"),
	})
	require.NoError(t, err)

	counting := &countingStore{Storer: mem}
	core := featurebus.NewCore(log, featurecache.NewStore(log, counting, time.Minute))

	return core, counting, tn
}

func TestAbsentFieldsAreDisabled(t *testing.T) {
	core, _, tn := setup(t)

	cfg, err := core.Get(context.Background(), tn.ID)
	require.NoError(t, err)
	assert.True(t, cfg.IsZero())
	assert.False(t, cfg.WhatsAppEnabled())
	assert.False(t, cfg.AIAssistantEnabled())
}

func TestSetThenGetServedFromCache(t *testing.T) {
	core, counting, tn := setup(t)
	ctx := context.Background()

	wa := true
	provider := features.ProviderEvolution
	require.NoError(t, core.Set(ctx, tn.ID, features.Config{WhatsApp: &wa, Provider: &provider}))

	for range 3 {
		cfg, err := core.Get(ctx, tn.ID)
		require.NoError(t, err)
		assert.True(t, cfg.WhatsAppEnabled())
		assert.Equal(t, features.ProviderEvolution, *cfg.Provider)
	}

	assert.Equal(t, 0, counting.reads)
}

func TestUnknownTenant(t *testing.T) {
	core, _, _ := setup(t)

	_, err := core.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, tenantbus.ErrNotFound)

	err = core.Set(context.Background(), uuid.New(), features.Config{})
	assert.ErrorIs(t, err, tenantbus.ErrNotFound)
}
