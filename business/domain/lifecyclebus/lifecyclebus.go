// Package lifecyclebus runs the tenant lifecycle: provisioning and
// deprovisioning organizations together with their administrator accounts,
// and membership administration. Steps that cross the identity store and
// tenant directory boundary run as sagas with explicit compensations.
package lifecyclebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/saga"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/operation"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
)

// Option configures the Core.
type Option func(*Core)

// WithStepTimeout bounds every external call made by an operation. A step
// that times out fails and triggers the same compensation as any failure.
func WithStepTimeout(d time.Duration) Option {
	return func(c *Core) {
		c.stepTimeout = d
	}
}

// WithBeginner lets tenant deletion remove memberships and the organization
// row inside one database transaction.
func WithBeginner(bgn sqldb.Beginner) Option {
	return func(c *Core) {
		c.beginner = bgn
	}
}

// Core manages the set of APIs for tenant lifecycle operations.
type Core struct {
	log         *logger.Logger
	policy      *policybus.Core
	tenantBus   *tenantbus.Core
	memberBus   *memberbus.Core
	identityBus *identitybus.Core
	featureBus  *featurebus.Core
	beginner    sqldb.Beginner
	stepTimeout time.Duration
}

// NewCore constructs the lifecycle manager. Every collaborator is passed in
// explicitly.
func NewCore(log *logger.Logger, policy *policybus.Core, tenantBus *tenantbus.Core, memberBus *memberbus.Core, identityBus *identitybus.Core, featureBus *featurebus.Core, opts ...Option) *Core {
	c := Core{
		log:         log,
		policy:      policy,
		tenantBus:   tenantBus,
		memberBus:   memberBus,
		identityBus: identityBus,
		featureBus:  featureBus,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

func (c *Core) authorize(ctx context.Context, caller policybus.Caller, op operation.Operation, target uuid.UUID) error {
	d := c.policy.Authorize(ctx, caller, op, target)
	if d.Allowed {
		return nil
	}

	if d.Reason == policybus.ReasonNotAuthenticated {
		return unauthenticated("authentication required", nil)
	}

	return denied(d.Reason, fmt.Sprintf("%s is not permitted: %s", op, d.Reason))
}

func (c *Core) newSaga(name string) *saga.Saga {
	return saga.New(c.log, name, saga.WithStepTimeout(c.stepTimeout))
}

func (c *Core) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.stepTimeout)
}

func (c *Core) loadTenant(ctx context.Context, orgID uuid.UUID) (tenantbus.Tenant, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	t, err := c.tenantBus.QueryByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return tenantbus.Tenant{}, invalid("org_id", "organization not found", err)
		}
		return tenantbus.Tenant{}, external("load organization", err)
	}

	return t, nil
}

func (c *Core) loadMembership(ctx context.Context, principalID uuid.UUID) (memberbus.Membership, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	m, err := c.memberBus.QueryByPrincipal(ctx, principalID)
	if err != nil {
		if errors.Is(err, memberbus.ErrNotFound) {
			return memberbus.Membership{}, invalid("principal_id", "membership not found", err)
		}
		return memberbus.Membership{}, external("load membership", err)
	}

	return m, nil
}

// deleteIdentity removes an identity as a best-effort cleanup. A failure is
// logged and skipped.
func (c *Core) deleteIdentity(ctx context.Context, principalID uuid.UUID, orgID uuid.UUID) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.identityBus.Delete(ctx, principalID); err != nil {
		c.log.Warn(ctx, "lifecycle: identity delete skipped", "principal_id", principalID, "org_id", orgID, "err", err)
	}
}
