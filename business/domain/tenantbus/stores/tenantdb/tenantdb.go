// Package tenantdb contains tenant related CRUD functionality.
package tenantdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/order"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/page"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for tenant database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
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

// Create inserts a new tenant into the database.
func (s *Store) Create(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	INSERT INTO organizations
		(id, name, slug, lifecycle_status, feature_config, created_at, updated_at)
	VALUES
		(:id, :name, :slug, :lifecycle_status, :feature_config, :created_at, :updated_at)`

	dbT, err := toDBTenant(t)
	if err != nil {
		return err
	}

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, dbT); err != nil {
		return fmt.Errorf("namedexeccontext: %w", mapUnique(err))
	}

	return nil
}

// Update replaces a tenant row in the database.
func (s *Store) Update(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	UPDATE
		organizations
	SET
		name = :name,
		slug = :slug,
		lifecycle_status = :lifecycle_status,
		feature_config = :feature_config,
		updated_at = :updated_at
	WHERE
		id = :id`

	dbT, err := toDBTenant(t)
	if err != nil {
		return err
	}

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, q, dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrNotFound)
		}
		return fmt.Errorf("namedexeccontext: %w", mapUnique(err))
	}

	return nil
}

// Delete removes a tenant from the database.
func (s *Store) Delete(ctx context.Context, t tenantbus.Tenant) error {
	data := struct {
		ID string `db:"id"`
	}{
		ID: t.ID.String(),
	}

	const q = `
	DELETE FROM
		organizations
	WHERE
		id = :id`

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, q, data); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrNotFound)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing tenants from the database.
func (s *Store) Query(ctx context.Context, filter tenantbus.QueryFilter, orderBy order.By, page page.Page) ([]tenantbus.Tenant, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		id, name, slug, lifecycle_status, feature_config, created_at, updated_at
	FROM
		organizations`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	orderByClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	buf.WriteString(orderByClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbTs []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbTs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTs)
}

// Count returns the total number of tenants in the DB.
func (s *Store) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		organizations`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByID gets the specified tenant from the database.
func (s *Store) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	data := struct {
		ID string `db:"id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		id, name, slug, lifecycle_status, feature_config, created_at, updated_at
	FROM
		organizations
	WHERE
		id = :id`

	var dbT tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbT)
}

// QueryBySlug gets the tenant owning the slug.
func (s *Store) QueryBySlug(ctx context.Context, sl slug.Slug) (tenantbus.Tenant, error) {
	data := struct {
		Slug string `db:"slug"`
	}{
		Slug: sl.String(),
	}

	const q = `
	SELECT
		id, name, slug, lifecycle_status, feature_config, created_at, updated_at
	FROM
		organizations
	WHERE
		slug = :slug`

	var dbT tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbT)
}

// QueryFeatures reads only the feature configuration of a tenant.
func (s *Store) QueryFeatures(ctx context.Context, tenantID uuid.UUID) (features.Config, error) {
	data := struct {
		ID string `db:"id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		feature_config
	FROM
		organizations
	WHERE
		id = :id`

	var result struct {
		Features string `db:"feature_config"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return features.Config{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return features.Config{}, fmt.Errorf("db: %w", err)
	}

	return features.Unmarshal([]byte(result.Features))
}

// UpdateFeatures replaces only the feature configuration of a tenant.
func (s *Store) UpdateFeatures(ctx context.Context, tenantID uuid.UUID, cfg features.Config) error {
	raw, err := cfg.Marshal()
	if err != nil {
		return err
	}

	data := struct {
		ID        string    `db:"id"`
		Features  string    `db:"feature_config"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		ID:        tenantID.String(),
		Features:  string(raw),
		UpdatedAt: time.Now().UTC(),
	}

	const q = `
	UPDATE
		organizations
	SET
		feature_config = :feature_config,
		updated_at = :updated_at
	WHERE
		id = :id`

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, q, data); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrNotFound)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

func mapUnique(err error) error {
	var dupErr sqldb.ErrDBDuplicatedEntry
	if errors.As(err, &dupErr) {
		if dupErr.Column == "slug" || dupErr.Column == "organizations_slug_key" {
			return tenantbus.ErrUniqueSlug
		}
	}

	return err
}
