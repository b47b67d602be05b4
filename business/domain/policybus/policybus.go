// Package policybus decides whether a caller may run a tenant or membership
// operation. Decisions are pure: nothing is read or written.
package policybus

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/operation"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// Option configures the Core.
type Option func(*options)

type options struct {
	adminsManageFeatures bool
}

// WithAdminsManageFeatures lets an admin change the feature configuration of
// its own organization. By default only a super admin can.
func WithAdminsManageFeatures(enabled bool) Option {
	return func(o *options) {
		o.adminsManageFeatures = enabled
	}
}

// Core evaluates the role capability table.
type Core struct {
	log      *logger.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewCore constructs the policy engine.
func NewCore(log *logger.Logger, opts ...Option) (*Core, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e, err := newEnforcer(o.adminsManageFeatures)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	return &Core{
		log:      log,
		enforcer: e,
	}, nil
}

// Authorize decides whether the caller may run op against the target
// organization. targetOrg is nil for operations that address no
// organization, such as creating one.
func (c *Core) Authorize(ctx context.Context, caller Caller, op operation.Operation, targetOrg uuid.UUID) Decision {
	ctx, span := otel.AddSpan(ctx, "business.policybus.authorize")
	defer span.End()

	if caller.IsZero() {
		return deny(ReasonNotAuthenticated)
	}

	if caller.Role.TenantScoped() && caller.OrgID == uuid.Nil {
		panic(fmt.Sprintf("policy: tenant scoped caller %s has no organization", caller.PrincipalID))
	}

	scope := scopeOf(caller, targetOrg)

	if c.enforce(ctx, caller, scope, op) {
		return allow()
	}

	if scope == scopeOther && c.enforce(ctx, caller, scopeOwn, op) {
		return deny(ReasonCrossTenantForbidden)
	}

	return deny(ReasonInsufficientRole)
}

func (c *Core) enforce(ctx context.Context, caller Caller, scope string, op operation.Operation) bool {
	ok, err := c.enforcer.Enforce(caller.Role.String(), scope, op.String())
	if err != nil {
		c.log.Error(ctx, "policy: enforce failed", "role", caller.Role, "op", op, "err", err)
		return false
	}

	return ok
}

func scopeOf(caller Caller, targetOrg uuid.UUID) string {
	switch {
	case targetOrg == uuid.Nil:
		return scopeNone
	case caller.OrgID == targetOrg:
		return scopeOwn
	}

	return scopeOther
}
