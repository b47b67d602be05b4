// Package featurecache keeps recently read feature configurations in memory.
// Readers may observe a value up to one TTL old.
package featurecache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/viccon/sturdyc"
)

// Store wraps a feature storer with a read-through cache.
type Store struct {
	log    *logger.Logger
	storer featurebus.Storer
	cache  *sturdyc.Client[features.Config]
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer featurebus.Storer, ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[features.Config](capacity, numShards, ttl, evictionPercentage),
	}
}

// QueryFeatures reads from the cache, falling back to the storer.
func (s *Store) QueryFeatures(ctx context.Context, tenantID uuid.UUID) (features.Config, error) {
	key := tenantID.String()

	if cfg, exists := s.cache.Get(key); exists {
		return cfg, nil
	}

	cfg, err := s.storer.QueryFeatures(ctx, tenantID)
	if err != nil {
		return features.Config{}, err
	}

	s.cache.Set(key, cfg)

	return cfg, nil
}

// UpdateFeatures writes through to the storer and refreshes the entry.
func (s *Store) UpdateFeatures(ctx context.Context, tenantID uuid.UUID, cfg features.Config) error {
	if err := s.storer.UpdateFeatures(ctx, tenantID, cfg); err != nil {
		s.cache.Delete(tenantID.String())
		return err
	}

	s.cache.Set(tenantID.String(), cfg)

	return nil
}

// Invalidate drops the cached entry of a tenant.
func (s *Store) Invalidate(tenantID uuid.UUID) {
	s.cache.Delete(tenantID.String())
}
