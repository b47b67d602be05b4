// Package membermem keeps memberships in memory for running the service with
// the database disabled and for tests.
package membermem

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

// Store manages memberships held in memory keyed by principal.
type Store struct {
	mu          sync.RWMutex
	memberships map[uuid.UUID]memberbus.Membership
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		memberships: make(map[uuid.UUID]memberbus.Membership),
	}
}

// NewWithTx returns the same store. Memory writes are applied immediately.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (memberbus.Storer, error) {
	return s, nil
}

// Create adds the membership.
func (s *Store) Create(_ context.Context, m memberbus.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memberships[m.PrincipalID]; exists {
		return memberbus.ErrExists
	}

	s.memberships[m.PrincipalID] = m

	return nil
}

// Update replaces the membership.
func (s *Store) Update(_ context.Context, m memberbus.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memberships[m.PrincipalID]; !exists {
		return memberbus.ErrNotFound
	}

	s.memberships[m.PrincipalID] = m

	return nil
}

// Upsert adds or replaces the membership keeping the original creation time.
func (s *Store) Upsert(_ context.Context, m memberbus.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.memberships[m.PrincipalID]; exists {
		m.CreatedAt = old.CreatedAt
	}

	s.memberships[m.PrincipalID] = m

	return nil
}

// Delete removes the membership.
func (s *Store) Delete(_ context.Context, m memberbus.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memberships[m.PrincipalID]; !exists {
		return memberbus.ErrNotFound
	}

	delete(s.memberships, m.PrincipalID)

	return nil
}

// DeleteByOrg removes every membership of the organization.
func (s *Store) DeleteByOrg(_ context.Context, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.memberships {
		if m.OrgID == orgID {
			delete(s.memberships, id)
		}
	}

	return nil
}

// QueryByPrincipal returns the membership of the principal.
func (s *Store) QueryByPrincipal(_ context.Context, principalID uuid.UUID) (memberbus.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.memberships[principalID]
	if !exists {
		return memberbus.Membership{}, memberbus.ErrNotFound
	}

	return m, nil
}

// QueryByOrg returns the memberships of the organization, oldest first.
func (s *Store) QueryByOrg(_ context.Context, orgID uuid.UUID) ([]memberbus.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byOrg(orgID, nil), nil
}

// QueryAdminForOrg returns the earliest created admin of the organization.
func (s *Store) QueryAdminForOrg(_ context.Context, orgID uuid.UUID) (memberbus.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := s.byOrg(orgID, &role.Admin)
	if len(admins) == 0 {
		return memberbus.Membership{}, memberbus.ErrNotFound
	}

	return admins[0], nil
}

// CountByOrg returns the number of memberships of the organization.
func (s *Store) CountByOrg(_ context.Context, orgID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byOrg(orgID, nil)), nil
}

// CountByOrgRole returns the number of memberships with the role.
func (s *Store) CountByOrgRole(_ context.Context, orgID uuid.UUID, r role.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byOrg(orgID, &r)), nil
}

// CountByRole returns the number of memberships with the role.
func (s *Store) CountByRole(_ context.Context, r role.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, m := range s.memberships {
		if m.Role.Equal(r) {
			n++
		}
	}

	return n, nil
}

func (s *Store) byOrg(orgID uuid.UUID, r *role.Role) []memberbus.Membership {
	var ms []memberbus.Membership

	for _, m := range s.memberships {
		if m.OrgID != orgID {
			continue
		}
		if r != nil && !m.Role.Equal(*r) {
			continue
		}
		ms = append(ms, m)
	}

	sort.Slice(ms, func(i, j int) bool {
		if c := ms[i].CreatedAt.Compare(ms[j].CreatedAt); c != 0 {
			return c < 0
		}
		return ms[i].PrincipalID.String() < ms[j].PrincipalID.String()
	})

	return ms
}
