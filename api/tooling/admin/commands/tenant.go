package commands

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/sheet"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/page"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
)

// NewTenant holds the create-tenant arguments.
type NewTenant struct {
	Name          string
	Slug          string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// CreateTenant provisions an organization with its first administrator.
func CreateTenant(ctx context.Context, lifecycle *lifecyclebus.Core, operator policybus.Caller, args NewTenant) (uuid.UUID, error) {
	nme, err := name.Parse(args.Name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse name: %w", err)
	}

	sl := args.Slug
	if sl == "" {
		sl = slug.Normalize(args.Name)
	}

	slg, err := slug.Parse(sl)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse slug: %w", err)
	}

	adminName, err := name.Parse(args.AdminName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse admin name: %w", err)
	}

	addr, err := mail.ParseAddress(args.AdminEmail)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse admin email: %w", err)
	}

	pw, err := password.Parse(args.AdminPassword)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse admin password: %w", err)
	}

	tn, err := lifecycle.CreateTenant(ctx, operator, lifecyclebus.NewTenant{
		Name:          nme,
		Slug:          slg,
		AdminName:     adminName,
		AdminEmail:    *addr,
		AdminPassword: pw,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create tenant: %w", err)
	}

	fmt.Printf("tenant created: id[%s] slug[%s]\n", tn.ID, tn.Slug)

	return tn.ID, nil
}

// SetStatus changes the lifecycle status of an organization. Unlike the
// HTTP api it accepts inactive.
func SetStatus(ctx context.Context, lifecycle *lifecyclebus.Core, operator policybus.Caller, orgID string, value string) error {
	id, err := uuid.Parse(orgID)
	if err != nil {
		return fmt.Errorf("parse org id: %w", err)
	}

	st, err := status.Parse(value)
	if err != nil {
		return fmt.Errorf("parse status: %w", err)
	}

	tn, err := lifecycle.SetTenantStatus(ctx, operator, id, st)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	fmt.Printf("tenant %s is now %s\n", tn.ID, tn.Status)

	return nil
}

// DeleteTenant removes an organization with its memberships and identities.
func DeleteTenant(ctx context.Context, lifecycle *lifecyclebus.Core, operator policybus.Caller, orgID string) error {
	id, err := uuid.Parse(orgID)
	if err != nil {
		return fmt.Errorf("parse org id: %w", err)
	}

	if err := lifecycle.DeleteTenant(ctx, operator, id); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}

	fmt.Println("tenant deleted:", id)

	return nil
}

// ExportTenants writes every organization to a workbook at path. An empty
// path uses a timestamped name in the working directory.
func ExportTenants(ctx context.Context, lifecycle *lifecyclebus.Core, operator policybus.Caller, path string) (string, error) {
	items, _, err := lifecycle.ListTenants(ctx, operator, tenantbus.QueryFilter{}, tenantbus.DefaultOrderBy, page.All())
	if err != nil {
		return "", fmt.Errorf("list tenants: %w", err)
	}

	data, err := sheet.Tenants(items)
	if err != nil {
		return "", fmt.Errorf("build sheet: %w", err)
	}

	if path == "" {
		path = sheet.Filename(time.Now())
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write sheet: %w", err)
	}

	fmt.Printf("exported %d tenants to %s\n", len(items), path)

	return path, nil
}
