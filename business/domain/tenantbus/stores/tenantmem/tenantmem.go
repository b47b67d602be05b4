// Package tenantmem keeps tenants in memory for running the service with
// the database disabled and for tests.
package tenantmem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/order"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/page"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
)

// Store manages tenants held in memory. Slug uniqueness is enforced the
// same way the database constraint does.
type Store struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]tenantbus.Tenant
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		tenants: make(map[uuid.UUID]tenantbus.Tenant),
	}
}

// NewWithTx returns the same store. Memory writes are applied immediately.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	return s, nil
}

// Create adds the tenant.
func (s *Store) Create(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; exists {
		return fmt.Errorf("create: tenant %s already exists", t.ID)
	}

	if s.slugTaken(t.Slug, t.ID) {
		return fmt.Errorf("create: %w", tenantbus.ErrUniqueSlug)
	}

	s.tenants[t.ID] = t

	return nil
}

// Update replaces the tenant.
func (s *Store) Update(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; !exists {
		return fmt.Errorf("update: %w", tenantbus.ErrNotFound)
	}

	if s.slugTaken(t.Slug, t.ID) {
		return fmt.Errorf("update: %w", tenantbus.ErrUniqueSlug)
	}

	s.tenants[t.ID] = t

	return nil
}

// Delete removes the tenant.
func (s *Store) Delete(_ context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; !exists {
		return fmt.Errorf("delete: %w", tenantbus.ErrNotFound)
	}

	delete(s.tenants, t.ID)

	return nil
}

// Query returns the filtered, ordered page of tenants.
func (s *Store) Query(_ context.Context, filter tenantbus.QueryFilter, orderBy order.By, pg page.Page) ([]tenantbus.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.filtered(filter)

	less, err := lessFunc(orderBy)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		return less(all[i], all[j])
	})

	start := min(pg.Offset(), len(all))
	end := min(start+pg.RowsPerPage(), len(all))

	return all[start:end], nil
}

// Count returns the number of tenants matching the filter.
func (s *Store) Count(_ context.Context, filter tenantbus.QueryFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.filtered(filter)), nil
}

// QueryByID returns the tenant with the id.
func (s *Store) QueryByID(_ context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tenants[tenantID]
	if !exists {
		return tenantbus.Tenant{}, tenantbus.ErrNotFound
	}

	return t, nil
}

// QueryBySlug returns the tenant owning the slug.
func (s *Store) QueryBySlug(_ context.Context, sl slug.Slug) (tenantbus.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.Slug.Equal(sl) {
			return t, nil
		}
	}

	return tenantbus.Tenant{}, tenantbus.ErrNotFound
}

// QueryFeatures returns the feature configuration of a tenant.
func (s *Store) QueryFeatures(ctx context.Context, tenantID uuid.UUID) (features.Config, error) {
	t, err := s.QueryByID(ctx, tenantID)
	if err != nil {
		return features.Config{}, err
	}

	return t.Features, nil
}

// UpdateFeatures replaces the feature configuration of a tenant.
func (s *Store) UpdateFeatures(_ context.Context, tenantID uuid.UUID, cfg features.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tenants[tenantID]
	if !exists {
		return tenantbus.ErrNotFound
	}

	t.Features = cfg
	t.UpdatedAt = time.Now().UTC()
	s.tenants[tenantID] = t

	return nil
}

func (s *Store) slugTaken(sl slug.Slug, except uuid.UUID) bool {
	for id, t := range s.tenants {
		if id != except && t.Slug.Equal(sl) {
			return true
		}
	}

	return false
}

func (s *Store) filtered(filter tenantbus.QueryFilter) []tenantbus.Tenant {
	all := make([]tenantbus.Tenant, 0, len(s.tenants))

	for _, t := range s.tenants {
		if filter.ID != nil && t.ID != *filter.ID {
			continue
		}
		if filter.Name != nil && !strings.Contains(strings.ToLower(t.Name.String()), strings.ToLower(*filter.Name)) {
			continue
		}
		if filter.Slug != nil && !t.Slug.Equal(*filter.Slug) {
			continue
		}
		if filter.Status != nil && !t.Status.Equal(*filter.Status) {
			continue
		}
		all = append(all, t)
	}

	return all
}

func lessFunc(orderBy order.By) (func(a, b tenantbus.Tenant) bool, error) {
	var cmp func(a, b tenantbus.Tenant) int

	switch orderBy.Field {
	case tenantbus.OrderByID:
		cmp = func(a, b tenantbus.Tenant) int { return strings.Compare(a.ID.String(), b.ID.String()) }
	case tenantbus.OrderByName:
		cmp = func(a, b tenantbus.Tenant) int { return strings.Compare(a.Name.String(), b.Name.String()) }
	case tenantbus.OrderBySlug:
		cmp = func(a, b tenantbus.Tenant) int { return strings.Compare(a.Slug.String(), b.Slug.String()) }
	case tenantbus.OrderByStatus:
		cmp = func(a, b tenantbus.Tenant) int { return strings.Compare(a.Status.String(), b.Status.String()) }
	case tenantbus.OrderByCreatedAt:
		cmp = func(a, b tenantbus.Tenant) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return nil, fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	less := func(a, b tenantbus.Tenant) bool {
		c := cmp(a, b)
		if orderBy.Direction == order.DESC {
			c = -c
		}
		if c == 0 {
			return a.ID.String() < b.ID.String()
		}
		return c < 0
	}

	return less, nil
}
