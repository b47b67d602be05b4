// Package tenantapp maintains the app layer api for the tenant domain.
package tenantapp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/query"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/sheet"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/order"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/page"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
)

type app struct {
	log       *logger.Logger
	lifecycle *lifecyclebus.Core
	idem      *idempotency.Store
}

func newApp(log *logger.Logger, lifecycle *lifecyclebus.Core, idem *idempotency.Store) *app {
	return &app{
		log:       log,
		lifecycle: lifecycle,
		idem:      idem,
	}
}

// create provisions an organization with its first administrator. A client
// supplied Idempotency-Key makes a retried request return the first result.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.Invalid(err)
	}

	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	nt, err := toBusNewTenant(app)
	if err != nil {
		return errs.Invalid(err)
	}

	var key string
	if k := r.Header.Get("Idempotency-Key"); k != "" && a.idem != nil {
		key = caller.PrincipalID.String() + ":" + k

		result, done, err := a.idem.Reserve(ctx, key)
		switch {
		case errors.Is(err, idempotency.ErrInFlight):
			return errs.New(errs.Aborted, err)

		case err != nil:
			return errs.Errorf(errs.Internal, "idempotency reserve: %s", err)

		case done:
			return a.replay(ctx, caller, result)
		}
	}

	tn, err := a.lifecycle.CreateTenant(ctx, caller, nt)
	if err != nil {
		if key != "" {
			a.idem.Release(ctx, key)
		}
		return errs.FromLifecycle(err)
	}

	if key != "" {
		if err := a.idem.Complete(ctx, key, tn.ID.String()); err != nil {
			a.log.Warn(ctx, "idempotency", "status", "complete failed", "org_id", tn.ID, "err", err)
		}
	}

	ts := lifecyclebus.TenantSummary{
		Tenant:      tn,
		MemberCount: 1,
		AdminCount:  1,
	}

	return createdTenant{Tenant: toAppTenant(ts)}
}

func (a *app) replay(ctx context.Context, caller policybus.Caller, result string) web.Encoder {
	orgID, err := uuid.Parse(result)
	if err != nil {
		return errs.Errorf(errs.Internal, "idempotency result: %s", err)
	}

	ts, err := a.lifecycle.QueryTenant(ctx, caller, orgID)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	a.log.Info(ctx, "idempotency", "status", "replayed", "principal_id", caller.PrincipalID, "org_id", orgID)

	return createdTenant{Tenant: toAppTenant(ts), replayed: true}
}

// update changes organization fields and the administrator account.
func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateTenant
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

	ut, err := toBusUpdateTenant(app)
	if err != nil {
		return errs.Invalid(err)
	}

	if _, err := a.lifecycle.UpdateTenant(ctx, caller, orgID, ut); err != nil {
		return errs.FromLifecycle(err)
	}

	ts, err := a.lifecycle.QueryTenant(ctx, caller, orgID)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppTenant(ts)
}

// updateStatus activates or blocks an organization.
func (a *app) updateStatus(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateStatus
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

	st, err := toBusStatus(app)
	if err != nil {
		return errs.Invalid(err)
	}

	if _, err := a.lifecycle.SetTenantStatus(ctx, caller, orgID, st); err != nil {
		return errs.FromLifecycle(err)
	}

	ts, err := a.lifecycle.QueryTenant(ctx, caller, orgID)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppTenant(ts)
}

// queryFeatures returns the integration configuration with the credential
// masked.
func (a *app) queryFeatures(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	orgID, err := web.ParamUUID(r, "org_id")
	if err != nil {
		return errs.NewFieldErrors("org_id", err)
	}

	cfg, err := a.lifecycle.GetTenantFeatures(ctx, caller, orgID)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppFeatures(cfg)
}

// updateFeatures replaces the integration configuration.
func (a *app) updateFeatures(ctx context.Context, r *http.Request) web.Encoder {
	var app Features
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

	cfg := toBusFeatures(app)
	if err := a.lifecycle.SetTenantFeatures(ctx, caller, orgID, cfg); err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppFeatures(cfg)
}

// delete removes an organization, its memberships and its identities.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	orgID, err := web.ParamUUID(r, "org_id")
	if err != nil {
		return errs.NewFieldErrors("org_id", err)
	}

	if err := a.lifecycle.DeleteTenant(ctx, caller, orgID); err != nil {
		return errs.FromLifecycle(err)
	}

	return nil
}

// queryByID returns an organization with its membership counts.
func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	orgID, err := web.ParamUUID(r, "org_id")
	if err != nil {
		return errs.NewFieldErrors("org_id", err)
	}

	ts, err := a.lifecycle.QueryTenant(ctx, caller, orgID)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	return toAppTenant(ts)
}

// query returns a page of organizations visible to the caller.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	pg, err := page.Parse(qp.Page, qp.Rows)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	items, total, encErr := a.list(ctx, qp, pg)
	if encErr != nil {
		return encErr
	}

	return query.NewResult(toAppTenants(items), total, pg)
}

// export writes every organization as a workbook. It is reserved for super
// admins.
func (a *app) export(ctx context.Context, r *http.Request) web.Encoder {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if !caller.Role.Equal(role.SuperAdmin) {
		e := errs.Errorf(errs.PermissionDenied, "export is reserved for super admins")
		e.Field = string(policybus.ReasonInsufficientRole)
		return e
	}

	qp := parseQueryParams(r)

	items, _, encErr := a.list(ctx, qp, page.All())
	if encErr != nil {
		return encErr
	}

	data, err := sheet.Tenants(items)
	if err != nil {
		return errs.Errorf(errs.Internal, "export: %s", err)
	}

	return export{
		data:     data,
		filename: sheet.Filename(time.Now()),
	}
}

func (a *app) list(ctx context.Context, qp queryParams, pg page.Page) ([]lifecyclebus.TenantSummary, int, *errs.Error) {
	caller, err := mid.GetCaller(ctx)
	if err != nil {
		return nil, 0, errs.New(errs.Unauthenticated, err)
	}

	filter, err := parseFilter(qp)
	if err != nil {
		return nil, 0, errs.Invalid(err)
	}

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, tenantbus.DefaultOrderBy)
	if err != nil {
		return nil, 0, errs.NewFieldErrors("order", err)
	}

	items, total, err := a.lifecycle.ListTenants(ctx, caller, filter, orderBy, pg)
	if err != nil {
		return nil, 0, errs.FromLifecycle(err)
	}

	return items, total, nil
}
