// Package identitybus provides access to the identity store that owns
// principals and their credentials.
package identitybus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// Set of error variables for identity store operations.
var (
	ErrNotFound              = errors.New("identity not found")
	ErrEmailExists           = errors.New("email already registered")
	ErrAuthenticationFailure = errors.New("authentication failed")
)

// Storer declares the behavior of an identity store backend.
type Storer interface {
	Create(ctx context.Context, ni NewIdentity) (Identity, error)
	Update(ctx context.Context, id uuid.UUID, ui UpdateIdentity) (Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	QueryByID(ctx context.Context, id uuid.UUID) (Identity, error)
	QueryByEmail(ctx context.Context, email mail.Address) (Identity, error)
	Authenticate(ctx context.Context, email mail.Address, password string) (Identity, error)
}

// Option configures the Core.
type Option func(*Core)

// WithCallTimeout bounds every call made to the identity store.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Core) {
		c.timeout = d
	}
}

// Core manages the set of APIs for identity access.
type Core struct {
	log     *logger.Logger
	storer  Storer
	timeout time.Duration
}

// NewCore constructs an identity core API for use.
func NewCore(log *logger.Logger, storer Storer, opts ...Option) *Core {
	c := Core{
		log:    log,
		storer: storer,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// Create adds a new account to the identity store.
func (c *Core) Create(ctx context.Context, ni NewIdentity) (Identity, error) {
	ctx, span := otel.AddSpan(ctx, "business.identitybus.create")
	defer span.End()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.storer.Create(ctx, ni)
	if err != nil {
		return Identity{}, fmt.Errorf("create: %w", err)
	}

	return idn, nil
}

// Update changes the name or credentials of an account.
func (c *Core) Update(ctx context.Context, id uuid.UUID, ui UpdateIdentity) (Identity, error) {
	ctx, span := otel.AddSpan(ctx, "business.identitybus.update")
	defer span.End()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.storer.Update(ctx, id, ui)
	if err != nil {
		return Identity{}, fmt.Errorf("update: id[%s]: %w", id, err)
	}

	return idn, nil
}

// Delete removes an account from the identity store.
func (c *Core) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.identitybus.delete")
	defer span.End()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.storer.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: id[%s]: %w", id, err)
	}

	return nil
}

// QueryByID finds an account by id.
func (c *Core) QueryByID(ctx context.Context, id uuid.UUID) (Identity, error) {
	ctx, span := otel.AddSpan(ctx, "business.identitybus.querybyid")
	defer span.End()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.storer.QueryByID(ctx, id)
	if err != nil {
		return Identity{}, fmt.Errorf("query: id[%s]: %w", id, err)
	}

	return idn, nil
}

// QueryByEmail finds an account by email.
func (c *Core) QueryByEmail(ctx context.Context, email mail.Address) (Identity, error) {
	ctx, span := otel.AddSpan(ctx, "business.identitybus.querybyemail")
	defer span.End()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.storer.QueryByEmail(ctx, email)
	if err != nil {
		return Identity{}, fmt.Errorf("query: email[%s]: %w", email.Address, err)
	}

	return idn, nil
}

// Authenticate verifies the credentials of an account.
func (c *Core) Authenticate(ctx context.Context, email mail.Address, password string) (Identity, error) {
	ctx, span := otel.AddSpan(ctx, "business.identitybus.authenticate")
	defer span.End()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.storer.Authenticate(ctx, email, password)
	if err != nil {
		return Identity{}, fmt.Errorf("authenticate: %w", err)
	}

	return idn, nil
}

func (c *Core) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.timeout)
}
