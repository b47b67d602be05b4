// Package memberapp maintains the app layer api for organization members.
package memberapp

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

type app struct {
	lifecycle *lifecyclebus.Core
}

func newApp(lifecycle *lifecyclebus.Core) *app {
	return &app{
		lifecycle: lifecycle,
	}
}

// create adds a principal to an organization.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewMember
	if err := web.Decode(r, &app); err != nil {
		return errs.Invalid(err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	orgID, err := web.ParamUUID(r, "org_id")
	if err != nil {
		return errs.NewFieldErrors("org_id", err)
	}

	nm, err := toBusNewMember(app)
	if err != nil {
		return errs.Invalid(err)
	}

	mbr, err := a.lifecycle.AddMember(ctx, caller, orgID, nm)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return createdMember{Member: toAppMember(mbr)}
}

// createSuperAdmin adds a platform super admin.
func (a *app) createSuperAdmin(ctx context.Context, r *http.Request) web.Encoder {
	var app NewSuperAdmin
	if err := web.Decode(r, &app); err != nil {
		return errs.Invalid(err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	nme, addr, pass, err := toBusNewSuperAdmin(app)
	if err != nil {
		return errs.Invalid(err)
	}

	mbr, err := a.lifecycle.AddSuperAdmin(ctx, caller, nme, addr, pass)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return createdMember{Member: toAppMember(mbr)}
}

// query lists the members of an organization.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	orgID, err := web.ParamUUID(r, "org_id")
	if err != nil {
		return errs.NewFieldErrors("org_id", err)
	}

	mbrs, err := a.lifecycle.ListMembers(ctx, caller, orgID)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppMembers(mbrs)
}

// updateRole changes the role of a member.
func (a *app) updateRole(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateRole
	if err := web.Decode(r, &app); err != nil {
		return errs.Invalid(err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	principalID, err := web.ParamUUID(r, "principal_id")
	if err != nil {
		return errs.NewFieldErrors("principal_id", err)
	}

	rle, err := role.Parse(app.Role)
	if err != nil {
		return errs.NewFieldErrors("role", err)
	}

	mbr, err := a.lifecycle.ChangeMemberRole(ctx, caller, principalID, rle)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppMembership(mbr)
}

// delete removes a member and their identity.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	principalID, err := web.ParamUUID(r, "principal_id")
	if err != nil {
		return errs.NewFieldErrors("principal_id", err)
	}

	if err := a.lifecycle.RemoveMember(ctx, caller, principalID); err != nil {
		return errs.FromLifecycle(err)
	}

	return nil
}
