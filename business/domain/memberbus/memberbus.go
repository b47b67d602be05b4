// Package memberbus provides business access to the membership registry.
package memberbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound     = errors.New("membership not found")
	ErrExists       = errors.New("principal already has a membership")
	ErrInvalidScope = errors.New("super_admin must have no organization and every other role exactly one")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, m Membership) error
	Update(ctx context.Context, m Membership) error
	Upsert(ctx context.Context, m Membership) error
	Delete(ctx context.Context, m Membership) error
	DeleteByOrg(ctx context.Context, orgID uuid.UUID) error
	QueryByPrincipal(ctx context.Context, principalID uuid.UUID) (Membership, error)
	QueryByOrg(ctx context.Context, orgID uuid.UUID) ([]Membership, error)
	QueryAdminForOrg(ctx context.Context, orgID uuid.UUID) (Membership, error)
	CountByOrg(ctx context.Context, orgID uuid.UUID) (int, error)
	CountByOrgRole(ctx context.Context, orgID uuid.UUID, r role.Role) (int, error)
	CountByRole(ctx context.Context, r role.Role) (int, error)
}

// Core manages the set of APIs for membership access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs a membership core API for use.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, storer), nil
}

// Create adds a new membership.
func (c *Core) Create(ctx context.Context, nm NewMembership) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.create")
	defer span.End()

	if err := checkScope(nm.Role, nm.OrgID); err != nil {
		return Membership{}, fmt.Errorf("create: %w", err)
	}

	now := time.Now().UTC()

	m := Membership{
		PrincipalID: nm.PrincipalID,
		OrgID:       nm.OrgID,
		Role:        nm.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.storer.Create(ctx, m); err != nil {
		return Membership{}, fmt.Errorf("create: %w", err)
	}

	return m, nil
}

// Upsert creates the membership or moves an existing one for the same
// principal to the given organization and role.
func (c *Core) Upsert(ctx context.Context, nm NewMembership) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.upsert")
	defer span.End()

	if err := checkScope(nm.Role, nm.OrgID); err != nil {
		return Membership{}, fmt.Errorf("upsert: %w", err)
	}

	now := time.Now().UTC()

	m := Membership{
		PrincipalID: nm.PrincipalID,
		OrgID:       nm.OrgID,
		Role:        nm.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.storer.Upsert(ctx, m); err != nil {
		return Membership{}, fmt.Errorf("upsert: %w", err)
	}

	return m, nil
}

// Update changes the role or organization of a membership.
func (c *Core) Update(ctx context.Context, m Membership, um UpdateMembership) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.update")
	defer span.End()

	if um.OrgID != nil {
		m.OrgID = *um.OrgID
	}

	if um.Role != nil {
		m.Role = *um.Role
	}

	if err := checkScope(m.Role, m.OrgID); err != nil {
		return Membership{}, fmt.Errorf("update: %w", err)
	}

	m.UpdatedAt = time.Now().UTC()

	if err := c.storer.Update(ctx, m); err != nil {
		return Membership{}, fmt.Errorf("update: %w", err)
	}

	return m, nil
}

// Delete removes the membership.
func (c *Core) Delete(ctx context.Context, m Membership) error {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, m); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// DeleteByOrg removes every membership of the organization.
func (c *Core) DeleteByOrg(ctx context.Context, orgID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.deletebyorg")
	defer span.End()

	if err := c.storer.DeleteByOrg(ctx, orgID); err != nil {
		return fmt.Errorf("deletebyorg: orgID[%s]: %w", orgID, err)
	}

	return nil
}

// QueryByPrincipal returns the membership of the principal.
func (c *Core) QueryByPrincipal(ctx context.Context, principalID uuid.UUID) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.querybyprincipal")
	defer span.End()

	m, err := c.storer.QueryByPrincipal(ctx, principalID)
	if err != nil {
		return Membership{}, fmt.Errorf("query: principalID[%s]: %w", principalID, err)
	}

	return m, nil
}

// QueryByOrg returns the memberships of an organization, oldest first.
func (c *Core) QueryByOrg(ctx context.Context, orgID uuid.UUID) ([]Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.querybyorg")
	defer span.End()

	ms, err := c.storer.QueryByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("query: orgID[%s]: %w", orgID, err)
	}

	return ms, nil
}

// FindAdminForOrg returns the administrator membership of an organization.
// When more than one exists the earliest created wins, ties broken by
// principal id. ErrNotFound is returned when there is none.
func (c *Core) FindAdminForOrg(ctx context.Context, orgID uuid.UUID) (Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.findadminfororg")
	defer span.End()

	m, err := c.storer.QueryAdminForOrg(ctx, orgID)
	if err != nil {
		return Membership{}, fmt.Errorf("query admin: orgID[%s]: %w", orgID, err)
	}

	return m, nil
}

// CountByOrg returns the number of memberships of an organization.
func (c *Core) CountByOrg(ctx context.Context, orgID uuid.UUID) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.countbyorg")
	defer span.End()

	return c.storer.CountByOrg(ctx, orgID)
}

// CountByOrgRole returns the number of memberships with the role in an
// organization.
func (c *Core) CountByOrgRole(ctx context.Context, orgID uuid.UUID, r role.Role) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.countbyorgrole")
	defer span.End()

	return c.storer.CountByOrgRole(ctx, orgID, r)
}

// CountByRole returns the number of memberships with the role across every
// organization.
func (c *Core) CountByRole(ctx context.Context, r role.Role) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.countbyrole")
	defer span.End()

	n, err := c.storer.CountByRole(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("count: role[%s]: %w", r, err)
	}

	return n, nil
}

func checkScope(r role.Role, orgID uuid.UUID) error {
	if r.IsZero() {
		return fmt.Errorf("%w: role missing", ErrInvalidScope)
	}

	if r.TenantScoped() != (orgID != uuid.Nil) {
		return fmt.Errorf("%w: role[%s] orgID[%s]", ErrInvalidScope, r, orgID)
	}

	return nil
}
