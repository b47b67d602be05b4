// Package featurebus provides read and write access to the per-tenant
// feature configuration consumed by messaging and assistant collaborators.
package featurebus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	QueryFeatures(ctx context.Context, tenantID uuid.UUID) (features.Config, error)
	UpdateFeatures(ctx context.Context, tenantID uuid.UUID, cfg features.Config) error
}

// Core manages the set of APIs for feature configuration access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs a feature core API for use.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// Get returns the feature configuration of a tenant. A missing field means
// the feature is disabled.
func (c *Core) Get(ctx context.Context, tenantID uuid.UUID) (features.Config, error) {
	ctx, span := otel.AddSpan(ctx, "business.featurebus.get")
	defer span.End()

	cfg, err := c.storer.QueryFeatures(ctx, tenantID)
	if err != nil {
		return features.Config{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return cfg, nil
}

// Set replaces the feature configuration of a tenant. Only the shape of the
// value is checked.
func (c *Core) Set(ctx context.Context, tenantID uuid.UUID, cfg features.Config) error {
	ctx, span := otel.AddSpan(ctx, "business.featurebus.set")
	defer span.End()

	if err := c.storer.UpdateFeatures(ctx, tenantID, cfg); err != nil {
		return fmt.Errorf("update: tenantID[%s]: %w", tenantID, err)
	}

	return nil
}

type invalidator interface {
	Invalidate(tenantID uuid.UUID)
}

// Invalidate drops any cached copy of the tenant's configuration. It is used
// when the configuration changed through another path, such as a full
// tenant update or a delete.
func (c *Core) Invalidate(tenantID uuid.UUID) {
	if inv, ok := c.storer.(invalidator); ok {
		inv.Invalidate(tenantID)
	}
}
