// Package identitylocal implements the identity store on top of the local
// accounts table.
package identitylocal

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus"
)

// Store adapts the user core to the identity store contract.
type Store struct {
	userBus *userbus.Core
}

// NewStore constructs the local identity store.
func NewStore(userBus *userbus.Core) *Store {
	return &Store{
		userBus: userBus,
	}
}

// Create adds a local account.
func (s *Store) Create(ctx context.Context, ni identitybus.NewIdentity) (identitybus.Identity, error) {
	usr, err := s.userBus.Create(ctx, userbus.NewUser{
		Name:     ni.Name,
		Email:    ni.Email,
		Password: ni.Password,
		Verified: ni.Verified,
	})
	if err != nil {
		return identitybus.Identity{}, mapErr(err)
	}

	return toIdentity(usr), nil
}

// Update changes the name or credentials of a local account.
func (s *Store) Update(ctx context.Context, id uuid.UUID, ui identitybus.UpdateIdentity) (identitybus.Identity, error) {
	usr, err := s.userBus.QueryByID(ctx, id)
	if err != nil {
		return identitybus.Identity{}, mapErr(err)
	}

	usr, err = s.userBus.Update(ctx, usr, userbus.UpdateUser{
		Name:     ui.Name,
		Email:    ui.Email,
		Password: ui.Password,
	})
	if err != nil {
		return identitybus.Identity{}, mapErr(err)
	}

	return toIdentity(usr), nil
}

// Delete removes a local account.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	usr, err := s.userBus.QueryByID(ctx, id)
	if err != nil {
		return mapErr(err)
	}

	if err := s.userBus.Delete(ctx, usr); err != nil {
		return mapErr(err)
	}

	return nil
}

// QueryByID finds a local account by id.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (identitybus.Identity, error) {
	usr, err := s.userBus.QueryByID(ctx, id)
	if err != nil {
		return identitybus.Identity{}, mapErr(err)
	}

	return toIdentity(usr), nil
}

// QueryByEmail finds a local account by email.
func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (identitybus.Identity, error) {
	usr, err := s.userBus.QueryByEmail(ctx, email)
	if err != nil {
		return identitybus.Identity{}, mapErr(err)
	}

	return toIdentity(usr), nil
}

// Authenticate verifies the password of a local account.
func (s *Store) Authenticate(ctx context.Context, email mail.Address, password string) (identitybus.Identity, error) {
	usr, err := s.userBus.Authenticate(ctx, email, password)
	if err != nil {
		return identitybus.Identity{}, mapErr(err)
	}

	return toIdentity(usr), nil
}

func toIdentity(usr userbus.User) identitybus.Identity {
	return identitybus.Identity{
		ID:       usr.ID,
		Name:     usr.Name.String(),
		Email:    usr.Email,
		Verified: usr.Verified,
	}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, userbus.ErrNotFound):
		return fmt.Errorf("%w: %w", identitybus.ErrNotFound, err)

	case errors.Is(err, userbus.ErrUniqueEmail):
		return fmt.Errorf("%w: %w", identitybus.ErrEmailExists, err)

	case errors.Is(err, userbus.ErrAuthenticationFailure):
		return fmt.Errorf("%w: %w", identitybus.ErrAuthenticationFailure, err)
	}

	return err
}
