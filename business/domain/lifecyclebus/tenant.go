package lifecyclebus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/order"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/page"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/saga"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/operation"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// PartialFailureMessage is returned when the organization row was saved but
// a dependent administrator update failed.
const PartialFailureMessage = "organization data saved, but the administrator account could not be updated"

// CreateTenant provisions an organization, its administrator identity and
// the admin membership. A failed step undoes the completed ones in reverse
// order.
func (c *Core) CreateTenant(ctx context.Context, caller policybus.Caller, nt NewTenant) (tenantbus.Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.createtenant")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantCreate, uuid.Nil); err != nil {
		return tenantbus.Tenant{}, err
	}

	if err := validateNewTenant(nt); err != nil {
		return tenantbus.Tenant{}, err
	}

	if err := c.checkSlug(ctx, nt.Slug, uuid.Nil); err != nil {
		return tenantbus.Tenant{}, err
	}

	s := c.newSaga("createtenant")

	var tn tenantbus.Tenant
	err := s.Run(ctx, saga.Step{
		Name: "organization",
		Do: func(ctx context.Context) error {
			var err error
			tn, err = c.tenantBus.Create(ctx, tenantbus.NewTenant{
				Name:     nt.Name,
				Slug:     nt.Slug,
				Features: nt.Features,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.tenantBus.Delete(ctx, tn)
		},
	})
	if err != nil {
		return tenantbus.Tenant{}, classifyStep(err)
	}

	var idn identitybus.Identity
	err = s.Run(ctx, saga.Step{
		Name: "identity",
		Do: func(ctx context.Context) error {
			var err error
			idn, err = c.identityBus.Create(ctx, identitybus.NewIdentity{
				Name:     nt.AdminName,
				Email:    nt.AdminEmail,
				Password: nt.AdminPassword,
				Verified: true,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.identityBus.Delete(ctx, idn.ID)
		},
	})
	if err != nil {
		return tenantbus.Tenant{}, classifyStep(err)
	}

	var m memberbus.Membership
	err = s.Run(ctx, saga.Step{
		Name: "membership",
		Do: func(ctx context.Context) error {
			var err error
			m, err = c.memberBus.Create(ctx, memberbus.NewMembership{
				PrincipalID: idn.ID,
				OrgID:       tn.ID,
				Role:        role.Admin,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.memberBus.Delete(ctx, m)
		},
	})
	if err != nil {
		return tenantbus.Tenant{}, classifyStep(err)
	}

	s.Forget()

	c.log.Info(ctx, "lifecycle: tenant created", "org_id", tn.ID, "slug", tn.Slug, "admin_id", idn.ID)

	return tn, nil
}

// UpdateTenant changes the organization fields and, when asked, the
// administrator account. An existing account of another organization is
// refused before anything is saved. Once the organization row is saved it is
// never rolled back: a later administrator failure is reported as a partial
// failure.
func (c *Core) UpdateTenant(ctx context.Context, caller policybus.Caller, orgID uuid.UUID, ut UpdateTenant) (tenantbus.Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.updatetenant")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantUpdate, orgID); err != nil {
		return tenantbus.Tenant{}, err
	}

	if ut.Features != nil {
		if err := c.authorize(ctx, caller, operation.TenantFeatures, orgID); err != nil {
			return tenantbus.Tenant{}, err
		}
	}

	if ut.hasAdminFields() {
		if err := c.authorize(ctx, caller, operation.TenantUpdateAdmin, orgID); err != nil {
			return tenantbus.Tenant{}, err
		}
	}

	tn, err := c.loadTenant(ctx, orgID)
	if err != nil {
		return tenantbus.Tenant{}, err
	}

	var admin memberbus.Membership
	var hasAdmin bool

	if ut.hasAdminFields() {
		admin, hasAdmin, err = c.findAdmin(ctx, orgID)
		if err != nil {
			return tenantbus.Tenant{}, err
		}

		if !hasAdmin {
			if ut.AdminEmail == nil || ut.AdminPassword == nil {
				return tenantbus.Tenant{}, invalid("admin_email", "binding an administrator requires email and password", nil)
			}

			if err := c.precheckClaim(ctx, orgID, *ut.AdminEmail); err != nil {
				return tenantbus.Tenant{}, err
			}
		}
	}

	if ut.Slug != nil && !ut.Slug.Equal(tn.Slug) {
		if err := c.checkSlug(ctx, *ut.Slug, tn.ID); err != nil {
			return tenantbus.Tenant{}, err
		}
	}

	var committed bool

	if tf := ut.tenantFields(); !tf.IsZero() {
		tn, err = c.updateTenantRow(ctx, tn, tf)
		if err != nil {
			return tenantbus.Tenant{}, err
		}
		committed = true

		if tf.Features != nil {
			c.featureBus.Invalidate(tn.ID)
		}
	}

	if !ut.hasAdminFields() {
		return tn, nil
	}

	fail := func(field string, msg string, err error) error {
		if !committed {
			var le *Error
			if errors.As(err, &le) {
				return le
			}
			if errors.Is(err, identitybus.ErrEmailExists) {
				return invalid(field, "email already registered", err)
			}
			return external(msg, err)
		}
		return partial(field, PartialFailureMessage, err)
	}

	if hasAdmin {
		if err := c.updateAdminIdentity(ctx, admin.PrincipalID, ut); err != nil {
			return tn, fail("admin_email", "update administrator", err)
		}
		return tn, nil
	}

	if err := c.bindAdmin(ctx, tn, ut); err != nil {
		return tn, fail("admin_email", "bind administrator", err)
	}

	return tn, nil
}

// SetTenantStatus changes the lifecycle status. Setting the current status
// again succeeds without a write.
func (c *Core) SetTenantStatus(ctx context.Context, caller policybus.Caller, orgID uuid.UUID, st status.Status) (tenantbus.Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.settenantstatus")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantStatus, orgID); err != nil {
		return tenantbus.Tenant{}, err
	}

	tn, err := c.loadTenant(ctx, orgID)
	if err != nil {
		return tenantbus.Tenant{}, err
	}

	bctx, cancel := c.bound(ctx)
	defer cancel()

	tn, err = c.tenantBus.SetStatus(bctx, tn, st)
	if err != nil {
		return tenantbus.Tenant{}, external("set status", err)
	}

	c.log.Info(ctx, "lifecycle: tenant status", "org_id", tn.ID, "status", st)

	return tn, nil
}

// SetTenantFeatures replaces the feature configuration.
func (c *Core) SetTenantFeatures(ctx context.Context, caller policybus.Caller, orgID uuid.UUID, cfg features.Config) error {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.settenantfeatures")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantFeatures, orgID); err != nil {
		return err
	}

	bctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.featureBus.Set(bctx, orgID, cfg); err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return invalid("org_id", "organization not found", err)
		}
		return external("set features", err)
	}

	return nil
}

// GetTenantFeatures returns the feature configuration to a member of the
// organization or a super admin.
func (c *Core) GetTenantFeatures(ctx context.Context, caller policybus.Caller, orgID uuid.UUID) (features.Config, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.gettenantfeatures")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantRead, orgID); err != nil {
		return features.Config{}, err
	}

	bctx, cancel := c.bound(ctx)
	defer cancel()

	cfg, err := c.featureBus.Get(bctx, orgID)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return features.Config{}, invalid("org_id", "organization not found", err)
		}
		return features.Config{}, external("get features", err)
	}

	return cfg, nil
}

// QueryTenant returns a single tenant with its membership counts.
func (c *Core) QueryTenant(ctx context.Context, caller policybus.Caller, orgID uuid.UUID) (TenantSummary, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.querytenant")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantRead, orgID); err != nil {
		return TenantSummary{}, err
	}

	tn, err := c.loadTenant(ctx, orgID)
	if err != nil {
		return TenantSummary{}, err
	}

	return c.summarize(ctx, tn)
}

// DeleteTenant removes every identity that belongs to the organization
// except the caller's, then deletes the organization. Identity deletions
// are best effort. When the organization delete fails the identities
// already removed stay removed.
func (c *Core) DeleteTenant(ctx context.Context, caller policybus.Caller, orgID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.deletetenant")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantDelete, orgID); err != nil {
		return err
	}

	tn, err := c.loadTenant(ctx, orgID)
	if err != nil {
		return err
	}

	members, err := c.membersOf(ctx, orgID)
	if err != nil {
		return external("list memberships", err)
	}

	for _, m := range members {
		if m.PrincipalID == caller.PrincipalID {
			continue
		}
		c.deleteIdentity(ctx, m.PrincipalID, orgID)
	}

	if err := c.deleteTenantRows(ctx, tn); err != nil {
		return external("delete organization", err)
	}

	c.featureBus.Invalidate(orgID)

	c.log.Info(ctx, "lifecycle: tenant deleted", "org_id", orgID, "members", len(members))

	return nil
}

// ListTenants returns tenants with their derived counts. Callers below
// super admin only see their own organization.
func (c *Core) ListTenants(ctx context.Context, caller policybus.Caller, filter tenantbus.QueryFilter, orderBy order.By, pg page.Page) ([]TenantSummary, int, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.listtenants")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.TenantList, uuid.Nil); err != nil {
		return nil, 0, err
	}

	if caller.Role.TenantScoped() {
		own := caller.OrgID
		filter.ID = &own
	}

	tenants, err := c.tenantBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		return nil, 0, external("query organizations", err)
	}

	total, err := c.tenantBus.Count(ctx, filter)
	if err != nil {
		return nil, 0, external("count organizations", err)
	}

	items := make([]TenantSummary, 0, len(tenants))
	for _, tn := range tenants {
		sum, err := c.summarize(ctx, tn)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sum)
	}

	return items, total, nil
}

// =============================================================================

func validateNewTenant(nt NewTenant) error {
	switch {
	case nt.Name.String() == "":
		return invalid("name", "name is required", nil)
	case nt.Slug.String() == "":
		return invalid("slug", "slug is required", nil)
	case nt.AdminName.String() == "":
		return invalid("admin_name", "administrator name is required", nil)
	case nt.AdminEmail.Address == "":
		return invalid("admin_email", "administrator email is required", nil)
	case nt.AdminPassword.IsZero():
		return invalid("admin_password", "administrator password is required", nil)
	}

	return nil
}

func (c *Core) checkSlug(ctx context.Context, sl slug.Slug, except uuid.UUID) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	ok, err := c.tenantBus.SlugAvailable(ctx, sl, except)
	if err != nil {
		return external("check slug", err)
	}

	if !ok {
		return invalid("slug", fmt.Sprintf("slug %q is already in use", sl), tenantbus.ErrUniqueSlug)
	}

	return nil
}

func (c *Core) updateTenantRow(ctx context.Context, tn tenantbus.Tenant, tf tenantbus.UpdateTenant) (tenantbus.Tenant, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	tn, err := c.tenantBus.Update(ctx, tn, tf)
	if err != nil {
		switch {
		case errors.Is(err, tenantbus.ErrUniqueSlug):
			return tenantbus.Tenant{}, invalid("slug", "slug is already in use", err)
		case errors.Is(err, tenantbus.ErrNotFound):
			return tenantbus.Tenant{}, invalid("org_id", "organization not found", err)
		}
		return tenantbus.Tenant{}, external("update organization", err)
	}

	return tn, nil
}

func (c *Core) findAdmin(ctx context.Context, orgID uuid.UUID) (memberbus.Membership, bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	m, err := c.memberBus.FindAdminForOrg(ctx, orgID)
	switch {
	case errors.Is(err, memberbus.ErrNotFound):
		return memberbus.Membership{}, false, nil
	case err != nil:
		return memberbus.Membership{}, false, external("find administrator", err)
	}

	return m, true, nil
}

func (c *Core) updateAdminIdentity(ctx context.Context, principalID uuid.UUID, ut UpdateTenant) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	_, err := c.identityBus.Update(ctx, principalID, identitybus.UpdateIdentity{
		Name:     ut.AdminName,
		Email:    ut.AdminEmail,
		Password: ut.AdminPassword,
	})

	return err
}

// bindAdmin attaches an administrator to a tenant that has none. An email
// that already exists in the identity store is claimed when the identity
// is not bound to another organization.
func (c *Core) bindAdmin(ctx context.Context, tn tenantbus.Tenant, ut UpdateTenant) error {
	adminName := tn.Name
	if ut.AdminName != nil {
		adminName = *ut.AdminName
	}

	s := c.newSaga("bindadmin")

	var idn identitybus.Identity
	var claimed bool
	err := s.Run(ctx, saga.Step{
		Name: "identity",
		Do: func(ctx context.Context) error {
			var err error
			idn, err = c.identityBus.Create(ctx, identitybus.NewIdentity{
				Name:     adminName,
				Email:    *ut.AdminEmail,
				Password: *ut.AdminPassword,
				Verified: true,
			})
			if !errors.Is(err, identitybus.ErrEmailExists) {
				return err
			}

			idn, err = c.claimIdentity(ctx, tn.ID, ut)
			claimed = err == nil
			return err
		},
		Undo: func(ctx context.Context) error {
			if claimed {
				return nil
			}
			return c.identityBus.Delete(ctx, idn.ID)
		},
	})
	if err != nil {
		return stepCause(err)
	}

	err = s.Run(ctx, saga.Step{
		Name: "membership",
		Do: func(ctx context.Context) error {
			_, err := c.memberBus.Upsert(ctx, memberbus.NewMembership{
				PrincipalID: idn.ID,
				OrgID:       tn.ID,
				Role:        role.Admin,
			})
			return err
		},
	})
	if err != nil {
		return stepCause(err)
	}

	s.Forget()

	c.log.Info(ctx, "lifecycle: administrator bound", "org_id", tn.ID, "admin_id", idn.ID, "claimed", claimed)

	return nil
}

func (c *Core) claimIdentity(ctx context.Context, orgID uuid.UUID, ut UpdateTenant) (identitybus.Identity, error) {
	idn, err := c.identityBus.QueryByEmail(ctx, *ut.AdminEmail)
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("lookup existing identity: %w", err)
	}

	if err := c.checkClaimable(ctx, orgID, idn.ID); err != nil {
		return identitybus.Identity{}, err
	}

	idn, err = c.identityBus.Update(ctx, idn.ID, identitybus.UpdateIdentity{
		Name:     ut.AdminName,
		Password: ut.AdminPassword,
	})
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("claim identity: %w", err)
	}

	return idn, nil
}

// checkClaimable refuses an identity that already holds a membership in
// another organization or a super admin membership.
func (c *Core) checkClaimable(ctx context.Context, orgID uuid.UUID, principalID uuid.UUID) error {
	m, err := c.memberBus.QueryByPrincipal(ctx, principalID)
	switch {
	case errors.Is(err, memberbus.ErrNotFound):
		return nil
	case err != nil:
		return err
	}

	if m.OrgID != orgID || !m.Role.TenantScoped() {
		return invalid("admin_email", "email belongs to an account of another organization", memberbus.ErrExists)
	}

	return nil
}

// precheckClaim runs before the organization row is written so a foreign
// identity is refused with nothing committed. claimIdentity checks again
// inside the saga.
func (c *Core) precheckClaim(ctx context.Context, orgID uuid.UUID, email mail.Address) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	idn, err := c.identityBus.QueryByEmail(ctx, email)
	switch {
	case errors.Is(err, identitybus.ErrNotFound):
		return nil
	case err != nil:
		return external("lookup existing identity", err)
	}

	if err := c.checkClaimable(ctx, orgID, idn.ID); err != nil {
		var le *Error
		if errors.As(err, &le) {
			return le
		}
		return external("lookup existing membership", err)
	}

	return nil
}

func (c *Core) membersOf(ctx context.Context, orgID uuid.UUID) ([]memberbus.Membership, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.memberBus.QueryByOrg(ctx, orgID)
}

func (c *Core) deleteTenantRows(ctx context.Context, tn tenantbus.Tenant) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if c.beginner == nil {
		if err := c.memberBus.DeleteByOrg(ctx, tn.ID); err != nil {
			return err
		}
		return c.tenantBus.Delete(ctx, tn)
	}

	return sqldb.WithinTran(c.beginner, func(tx sqldb.CommitRollbacker) error {
		memberBus, err := c.memberBus.NewWithTx(tx)
		if err != nil {
			return err
		}

		tenantBus, err := c.tenantBus.NewWithTx(tx)
		if err != nil {
			return err
		}

		if err := memberBus.DeleteByOrg(ctx, tn.ID); err != nil {
			return err
		}

		return tenantBus.Delete(ctx, tn)
	})
}

func (c *Core) summarize(ctx context.Context, tn tenantbus.Tenant) (TenantSummary, error) {
	members, err := c.memberBus.CountByOrg(ctx, tn.ID)
	if err != nil {
		return TenantSummary{}, external("count members", err)
	}

	admins, err := c.memberBus.CountByOrgRole(ctx, tn.ID, role.Admin)
	if err != nil {
		return TenantSummary{}, external("count administrators", err)
	}

	sum := TenantSummary{
		Tenant:      tn,
		MemberCount: members,
		AdminCount:  admins,
	}

	return sum, nil
}

// classifyStep turns a failed saga step into a typed error.
func classifyStep(err error) error {
	cause := stepCause(err)

	var le *Error
	if errors.As(cause, &le) {
		return le
	}

	var se *saga.StepError
	step := "unknown"
	if errors.As(err, &se) {
		step = se.Step
	}

	switch {
	case errors.Is(cause, tenantbus.ErrUniqueSlug):
		return invalid("slug", "slug is already in use", err)
	case errors.Is(cause, identitybus.ErrEmailExists):
		return invalid("admin_email", "email already registered", err)
	}

	return external(fmt.Sprintf("step %s failed, completed steps were rolled back", step), err)
}

// stepCause returns the error of the failed step itself, leaving out any
// compensation failure.
func stepCause(err error) error {
	var se *saga.StepError
	if errors.As(err, &se) {
		if se.Compensation != nil {
			return &compensatedErr{cause: se.Err, full: se}
		}
		return se.Err
	}
	return err
}

type compensatedErr struct {
	cause error
	full  *saga.StepError
}

func (e *compensatedErr) Error() string { return e.full.Error() }
func (e *compensatedErr) Unwrap() error { return e.cause }
