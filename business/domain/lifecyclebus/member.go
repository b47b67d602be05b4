package lifecyclebus

import (
	"context"
	"errors"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/saga"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/operation"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
)

// AddMember creates an identity and binds it to the organization. The
// identity is removed again when the membership cannot be written.
func (c *Core) AddMember(ctx context.Context, caller policybus.Caller, orgID uuid.UUID, nm NewMember) (Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.addmember")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.MemberManage, orgID); err != nil {
		return Member{}, err
	}

	if err := c.authorizeRole(ctx, caller, nm.Role, orgID); err != nil {
		return Member{}, err
	}

	if err := validateNewMember(nm); err != nil {
		return Member{}, err
	}

	if _, err := c.loadTenant(ctx, orgID); err != nil {
		return Member{}, err
	}

	s := c.newSaga("addmember")

	var idn identitybus.Identity
	err := s.Run(ctx, saga.Step{
		Name: "identity",
		Do: func(ctx context.Context) error {
			var err error
			idn, err = c.identityBus.Create(ctx, identitybus.NewIdentity{
				Name:     nm.Name,
				Email:    nm.Email,
				Password: nm.Password,
				Verified: true,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.identityBus.Delete(ctx, idn.ID)
		},
	})
	if err != nil {
		return Member{}, classifyMemberStep(err)
	}

	var m memberbus.Membership
	err = s.Run(ctx, saga.Step{
		Name: "membership",
		Do: func(ctx context.Context) error {
			var err error
			m, err = c.memberBus.Create(ctx, memberbus.NewMembership{
				PrincipalID: idn.ID,
				OrgID:       orgID,
				Role:        nm.Role,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.memberBus.Delete(ctx, m)
		},
	})
	if err != nil {
		return Member{}, classifyMemberStep(err)
	}

	s.Forget()

	c.log.Info(ctx, "lifecycle: member added", "org_id", orgID, "principal_id", idn.ID, "role", nm.Role)

	return Member{Membership: m, Name: idn.Name, Email: idn.Email.Address}, nil
}

// ChangeMemberRole moves a member to another tenant role inside the same
// organization.
func (c *Core) ChangeMemberRole(ctx context.Context, caller policybus.Caller, principalID uuid.UUID, r role.Role) (memberbus.Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.changememberrole")
	defer span.End()

	m, err := c.memberTarget(ctx, caller, principalID)
	if err != nil {
		return memberbus.Membership{}, err
	}

	if err := c.authorizeRole(ctx, caller, r, m.OrgID); err != nil {
		return memberbus.Membership{}, err
	}

	if r.Equal(m.Role) {
		return m, nil
	}

	bctx, cancel := c.bound(ctx)
	defer cancel()

	m, err = c.memberBus.Update(bctx, m, memberbus.UpdateMembership{Role: &r})
	if err != nil {
		if errors.Is(err, memberbus.ErrInvalidScope) {
			return memberbus.Membership{}, invalid("role", "role does not fit the membership", err)
		}
		return memberbus.Membership{}, external("update membership", err)
	}

	c.log.Info(ctx, "lifecycle: member role changed", "org_id", m.OrgID, "principal_id", principalID, "role", r)

	return m, nil
}

// RemoveMember deletes the membership and then, best effort, the identity.
func (c *Core) RemoveMember(ctx context.Context, caller policybus.Caller, principalID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.removemember")
	defer span.End()

	m, err := c.memberTarget(ctx, caller, principalID)
	if err != nil {
		return err
	}

	bctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.memberBus.Delete(bctx, m); err != nil {
		if errors.Is(err, memberbus.ErrNotFound) {
			return invalid("principal_id", "membership not found", err)
		}
		return external("delete membership", err)
	}

	c.deleteIdentity(ctx, principalID, m.OrgID)

	c.log.Info(ctx, "lifecycle: member removed", "org_id", m.OrgID, "principal_id", principalID)

	return nil
}

// ListMembers returns the memberships of an organization with the identity
// details that could be resolved.
func (c *Core) ListMembers(ctx context.Context, caller policybus.Caller, orgID uuid.UUID) ([]Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.listmembers")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.MemberManage, orgID); err != nil {
		return nil, err
	}

	if _, err := c.loadTenant(ctx, orgID); err != nil {
		return nil, err
	}

	ms, err := c.membersOf(ctx, orgID)
	if err != nil {
		return nil, external("list memberships", err)
	}

	members := make([]Member, len(ms))
	for i, m := range ms {
		members[i] = Member{Membership: m}

		idn, err := c.lookupIdentity(ctx, m.PrincipalID)
		if err != nil {
			c.log.Warn(ctx, "lifecycle: identity lookup skipped", "principal_id", m.PrincipalID, "org_id", orgID, "err", err)
			continue
		}

		members[i].Name = idn.Name
		members[i].Email = idn.Email.Address
	}

	return members, nil
}

// AddSuperAdmin creates another platform super administrator. Only a super
// admin may do this.
func (c *Core) AddSuperAdmin(ctx context.Context, caller policybus.Caller, n name.Name, email mail.Address, pass password.Password) (Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.addsuperadmin")
	defer span.End()

	if err := c.authorize(ctx, caller, operation.MemberGrantSuperAdmin, uuid.Nil); err != nil {
		return Member{}, err
	}

	m, idn, err := c.createSuperAdmin(ctx, "addsuperadmin", n, email, pass)
	if err != nil {
		return Member{}, err
	}

	c.log.Info(ctx, "lifecycle: super admin added", "principal_id", idn.ID, "by", caller.PrincipalID)

	return Member{Membership: m, Name: idn.Name, Email: idn.Email.Address}, nil
}

// SeedSuperAdmin creates the first platform super administrator. It carries
// no caller and is refused with ErrSuperAdminExists once any super admin
// exists. Later ones are added through AddSuperAdmin.
func (c *Core) SeedSuperAdmin(ctx context.Context, n name.Name, email mail.Address, pass password.Password) (memberbus.Membership, error) {
	ctx, span := otel.AddSpan(ctx, "business.lifecyclebus.seedsuperadmin")
	defer span.End()

	bctx, cancel := c.bound(ctx)
	defer cancel()

	count, err := c.memberBus.CountByRole(bctx, role.SuperAdmin)
	if err != nil {
		return memberbus.Membership{}, external("count super admins", err)
	}

	if count > 0 {
		return memberbus.Membership{}, invalid("email", "a super admin already exists", ErrSuperAdminExists)
	}

	m, idn, err := c.createSuperAdmin(ctx, "seedsuperadmin", n, email, pass)
	if err != nil {
		return memberbus.Membership{}, err
	}

	c.log.Info(ctx, "lifecycle: super admin seeded", "principal_id", idn.ID)

	return m, nil
}

// createSuperAdmin writes the identity and an organization-less super admin
// membership, removing the identity when the membership cannot be written.
func (c *Core) createSuperAdmin(ctx context.Context, op string, n name.Name, email mail.Address, pass password.Password) (memberbus.Membership, identitybus.Identity, error) {
	if err := validateNewMember(NewMember{Name: n, Email: email, Password: pass, Role: role.SuperAdmin}); err != nil {
		return memberbus.Membership{}, identitybus.Identity{}, err
	}

	s := c.newSaga(op)

	var idn identitybus.Identity
	err := s.Run(ctx, saga.Step{
		Name: "identity",
		Do: func(ctx context.Context) error {
			var err error
			idn, err = c.identityBus.Create(ctx, identitybus.NewIdentity{
				Name:     n,
				Email:    email,
				Password: pass,
				Verified: true,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.identityBus.Delete(ctx, idn.ID)
		},
	})
	if err != nil {
		return memberbus.Membership{}, identitybus.Identity{}, classifyMemberStep(err)
	}

	var m memberbus.Membership
	err = s.Run(ctx, saga.Step{
		Name: "membership",
		Do: func(ctx context.Context) error {
			var err error
			m, err = c.memberBus.Create(ctx, memberbus.NewMembership{
				PrincipalID: idn.ID,
				Role:        role.SuperAdmin,
			})
			return err
		},
		Undo: func(ctx context.Context) error {
			return c.memberBus.Delete(ctx, m)
		},
	})
	if err != nil {
		return memberbus.Membership{}, identitybus.Identity{}, classifyMemberStep(err)
	}

	s.Forget()

	return m, idn, nil
}

// =============================================================================

// memberTarget loads the membership an operation acts on and checks the
// caller may manage it. A caller never acts on their own membership.
func (c *Core) memberTarget(ctx context.Context, caller policybus.Caller, principalID uuid.UUID) (memberbus.Membership, error) {
	if caller.IsZero() {
		return memberbus.Membership{}, unauthenticated("authentication required", nil)
	}

	if caller.PrincipalID == principalID {
		return memberbus.Membership{}, invalid("principal_id", "a caller cannot change their own membership", nil)
	}

	m, err := c.loadMembership(ctx, principalID)
	if err != nil {
		return memberbus.Membership{}, err
	}

	if !m.Role.TenantScoped() {
		if err := c.authorize(ctx, caller, operation.MemberGrantSuperAdmin, uuid.Nil); err != nil {
			return memberbus.Membership{}, err
		}
		return m, nil
	}

	if err := c.authorize(ctx, caller, operation.MemberManage, m.OrgID); err != nil {
		return memberbus.Membership{}, err
	}

	if m.Role.Equal(role.Admin) {
		if err := c.authorize(ctx, caller, operation.MemberGrantAdmin, m.OrgID); err != nil {
			return memberbus.Membership{}, err
		}
	}

	return m, nil
}

// authorizeRole checks the caller may hand out the role inside orgID.
func (c *Core) authorizeRole(ctx context.Context, caller policybus.Caller, r role.Role, orgID uuid.UUID) error {
	switch {
	case r.IsZero():
		return invalid("role", "role is required", nil)

	case r.Equal(role.SuperAdmin):
		if err := c.authorize(ctx, caller, operation.MemberGrantSuperAdmin, uuid.Nil); err != nil {
			return err
		}
		return invalid("role", "super admins belong to no organization, add them with AddSuperAdmin", nil)

	case r.Equal(role.Admin):
		return c.authorize(ctx, caller, operation.MemberGrantAdmin, orgID)
	}

	return nil
}

func (c *Core) lookupIdentity(ctx context.Context, principalID uuid.UUID) (identitybus.Identity, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.identityBus.QueryByID(ctx, principalID)
}

func validateNewMember(nm NewMember) error {
	switch {
	case nm.Name.String() == "":
		return invalid("name", "name is required", nil)
	case nm.Email.Address == "":
		return invalid("email", "email is required", nil)
	case nm.Password.IsZero():
		return invalid("password", "password is required", nil)
	}

	return nil
}

func classifyMemberStep(err error) error {
	cause := stepCause(err)

	var le *Error
	if errors.As(cause, &le) {
		return le
	}

	switch {
	case errors.Is(cause, identitybus.ErrEmailExists):
		return invalid("email", "email already registered", err)
	case errors.Is(cause, memberbus.ErrExists):
		return invalid("email", "principal already belongs to an organization", err)
	}

	return classifyStep(err)
}
