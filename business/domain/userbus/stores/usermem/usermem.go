// Package usermem keeps accounts in memory for running the service with the
// database disabled and for tests.
package usermem

import (
	"context"
	"fmt"
	"net/mail"
	"sync"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
)

// Store manages accounts held in memory.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]userbus.User
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]userbus.User),
	}
}

// NewWithTx returns the same store. Memory writes are applied immediately.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (userbus.Storer, error) {
	return s, nil
}

// Create adds the user.
func (s *Store) Create(_ context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[usr.ID]; exists {
		return fmt.Errorf("create: user %s already exists", usr.ID)
	}

	if s.emailTaken(usr.Email, usr.ID) {
		return fmt.Errorf("create: %w", userbus.ErrUniqueEmail)
	}

	s.users[usr.ID] = usr

	return nil
}

// Update replaces the user.
func (s *Store) Update(_ context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[usr.ID]; !exists {
		return fmt.Errorf("update: %w", userbus.ErrNotFound)
	}

	if s.emailTaken(usr.Email, usr.ID) {
		return fmt.Errorf("update: %w", userbus.ErrUniqueEmail)
	}

	s.users[usr.ID] = usr

	return nil
}

// Delete removes the user.
func (s *Store) Delete(_ context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[usr.ID]; !exists {
		return fmt.Errorf("delete: %w", userbus.ErrNotFound)
	}

	delete(s.users, usr.ID)

	return nil
}

// QueryByID returns the user with the id.
func (s *Store) QueryByID(_ context.Context, userID uuid.UUID) (userbus.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, exists := s.users[userID]
	if !exists {
		return userbus.User{}, fmt.Errorf("query: %w", userbus.ErrNotFound)
	}

	return usr, nil
}

// QueryByEmail returns the user with the email.
func (s *Store) QueryByEmail(_ context.Context, email mail.Address) (userbus.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.users {
		if usr.Email.Address == email.Address {
			return usr, nil
		}
	}

	return userbus.User{}, fmt.Errorf("query: %w", userbus.ErrNotFound)
}

func (s *Store) emailTaken(email mail.Address, except uuid.UUID) bool {
	for id, usr := range s.users {
		if id != except && usr.Email.Address == email.Address {
			return true
		}
	}

	return false
}
