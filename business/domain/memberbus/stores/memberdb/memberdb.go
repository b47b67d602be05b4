// Package memberdb contains membership related CRUD functionality.
package memberdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for membership database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (memberbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new membership into the database.
func (s *Store) Create(ctx context.Context, m memberbus.Membership) error {
	const q = `
	INSERT INTO memberships
		(principal_id, organization_id, role, created_at, updated_at)
	VALUES
		(:principal_id, :organization_id, :role, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBMembership(m)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			return fmt.Errorf("namedexeccontext: %w", memberbus.ErrExists)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces the role and organization of a membership.
func (s *Store) Update(ctx context.Context, m memberbus.Membership) error {
	const q = `
	UPDATE
		memberships
	SET
		organization_id = :organization_id,
		role = :role,
		updated_at = :updated_at
	WHERE
		principal_id = :principal_id`

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, q, toDBMembership(m)); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return fmt.Errorf("namedexeccontext: %w", memberbus.ErrNotFound)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Upsert inserts the membership or replaces the existing one of the same
// principal, keeping its creation time.
func (s *Store) Upsert(ctx context.Context, m memberbus.Membership) error {
	const q = `
	INSERT INTO memberships
		(principal_id, organization_id, role, created_at, updated_at)
	VALUES
		(:principal_id, :organization_id, :role, :created_at, :updated_at)
	ON CONFLICT (principal_id) DO UPDATE SET
		organization_id = EXCLUDED.organization_id,
		role = EXCLUDED.role,
		updated_at = EXCLUDED.updated_at`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBMembership(m)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a membership from the database.
func (s *Store) Delete(ctx context.Context, m memberbus.Membership) error {
	data := struct {
		PrincipalID string `db:"principal_id"`
	}{
		PrincipalID: m.PrincipalID.String(),
	}

	const q = `
	DELETE FROM
		memberships
	WHERE
		principal_id = :principal_id`

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, q, data); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return fmt.Errorf("namedexeccontext: %w", memberbus.ErrNotFound)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// DeleteByOrg removes every membership of an organization.
func (s *Store) DeleteByOrg(ctx context.Context, orgID uuid.UUID) error {
	data := struct {
		OrgID string `db:"organization_id"`
	}{
		OrgID: orgID.String(),
	}

	const q = `
	DELETE FROM
		memberships
	WHERE
		organization_id = :organization_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByPrincipal gets the membership of a principal.
func (s *Store) QueryByPrincipal(ctx context.Context, principalID uuid.UUID) (memberbus.Membership, error) {
	data := struct {
		PrincipalID string `db:"principal_id"`
	}{
		PrincipalID: principalID.String(),
	}

	const q = `
	SELECT
		principal_id, organization_id, role, created_at, updated_at
	FROM
		memberships
	WHERE
		principal_id = :principal_id`

	var dbM membershipDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbM); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return memberbus.Membership{}, fmt.Errorf("db: %w", memberbus.ErrNotFound)
		}
		return memberbus.Membership{}, fmt.Errorf("db: %w", err)
	}

	return toBusMembership(dbM)
}

// QueryByOrg gets every membership of an organization, oldest first.
func (s *Store) QueryByOrg(ctx context.Context, orgID uuid.UUID) ([]memberbus.Membership, error) {
	data := struct {
		OrgID string `db:"organization_id"`
	}{
		OrgID: orgID.String(),
	}

	const q = `
	SELECT
		principal_id, organization_id, role, created_at, updated_at
	FROM
		memberships
	WHERE
		organization_id = :organization_id
	ORDER BY
		created_at, principal_id`

	var dbMs []membershipDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbMs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusMemberships(dbMs)
}

// QueryAdminForOrg gets the earliest created admin of an organization.
func (s *Store) QueryAdminForOrg(ctx context.Context, orgID uuid.UUID) (memberbus.Membership, error) {
	data := struct {
		OrgID string `db:"organization_id"`
		Role  string `db:"role"`
	}{
		OrgID: orgID.String(),
		Role:  role.Admin.String(),
	}

	const q = `
	SELECT
		principal_id, organization_id, role, created_at, updated_at
	FROM
		memberships
	WHERE
		organization_id = :organization_id AND role = :role
	ORDER BY
		created_at, principal_id
	LIMIT 1`

	var dbM membershipDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbM); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return memberbus.Membership{}, fmt.Errorf("db: %w", memberbus.ErrNotFound)
		}
		return memberbus.Membership{}, fmt.Errorf("db: %w", err)
	}

	return toBusMembership(dbM)
}

// CountByOrg returns the number of memberships of an organization.
func (s *Store) CountByOrg(ctx context.Context, orgID uuid.UUID) (int, error) {
	data := struct {
		OrgID string `db:"organization_id"`
	}{
		OrgID: orgID.String(),
	}

	const q = `
	SELECT
		count(1)
	FROM
		memberships
	WHERE
		organization_id = :organization_id`

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// CountByOrgRole returns the number of memberships with a role in an
// organization.
func (s *Store) CountByOrgRole(ctx context.Context, orgID uuid.UUID, r role.Role) (int, error) {
	data := struct {
		OrgID string `db:"organization_id"`
		Role  string `db:"role"`
	}{
		OrgID: orgID.String(),
		Role:  r.String(),
	}

	const q = `
	SELECT
		count(1)
	FROM
		memberships
	WHERE
		organization_id = :organization_id AND role = :role`

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// CountByRole returns the number of memberships with a role.
func (s *Store) CountByRole(ctx context.Context, r role.Role) (int, error) {
	data := struct {
		Role string `db:"role"`
	}{
		Role: r.String(),
	}

	const q = `
	SELECT
		count(1)
	FROM
		memberships
	WHERE
		role = :role`

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}
