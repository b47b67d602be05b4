package lifecyclebus

import (
	"context"
	"errors"
	"net/mail"

	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// Login authenticates against the identity store and resolves the caller
// the credentials belong to. Members of an organization that is not active
// are refused.
func (c *Core) Login(ctx context.Context, email mail.Address, password string) (policybus.Caller, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.login")
	defer span.End()

	bctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.identityBus.Authenticate(bctx, email, password)
	if err != nil {
		if errors.Is(err, identitybus.ErrAuthenticationFailure) || errors.Is(err, identitybus.ErrNotFound) {
			return policybus.Caller{}, unauthenticated("invalid credentials", err)
		}
		return policybus.Caller{}, external("authenticate", err)
	}

	m, err := c.memberBus.QueryByPrincipal(bctx, idn.ID)
	if err != nil {
		if errors.Is(err, memberbus.ErrNotFound) {
			return policybus.Caller{}, unauthenticated("account has no organization", err)
		}
		return policybus.Caller{}, external("load membership", err)
	}

	caller := policybus.Caller{
		PrincipalID: m.PrincipalID,
		Role:        m.Role,
		OrgID:       m.OrgID,
	}

	if err := c.tenantActive(bctx, caller); err != nil {
		return policybus.Caller{}, err
	}

	return caller, nil
}

// CheckTenantActive confirms that the caller's membership still matches
// what was issued and that their organization is active.
func (c *Core) CheckTenantActive(ctx context.Context, caller policybus.Caller) error {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.checktenantactive")
	defer span.End()

	if caller.IsZero() {
		return unauthenticated("authentication required", nil)
	}

	bctx, cancel := c.bound(ctx)
	defer cancel()

	m, err := c.memberBus.QueryByPrincipal(bctx, caller.PrincipalID)
	if err != nil {
		if errors.Is(err, memberbus.ErrNotFound) {
			return unauthenticated("membership revoked", err)
		}
		return external("load membership", err)
	}

	if !m.Role.Equal(caller.Role) || m.OrgID != caller.OrgID {
		return unauthenticated("membership changed, sign in again", nil)
	}

	return c.tenantActive(bctx, caller)
}

func (c *Core) tenantActive(ctx context.Context, caller policybus.Caller) error {
	if !caller.Role.TenantScoped() {
		return nil
	}

	tn, err := c.tenantBus.QueryByID(ctx, caller.OrgID)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return unauthenticated("organization not found", err)
		}
		return external("load organization", err)
	}

	if !tn.Status.AllowsLogin() {
		return unauthenticated("organization is not active", nil)
	}

	return nil
}
