package lifecyclebus

import (
	"net/mail"

	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
)

// NewTenant contains what is needed to provision a tenant and its first
// administrator.
type NewTenant struct {
	Name          name.Name
	Slug          slug.Slug
	AdminName     name.Name
	AdminEmail    mail.Address
	AdminPassword password.Password
	Features      features.Config
}

// UpdateTenant contains the organization fields and administrator fields
// that may change. Nil fields are left untouched.
type UpdateTenant struct {
	Name          *name.Name
	Slug          *slug.Slug
	Features      *features.Config
	AdminName     *name.Name
	AdminEmail    *mail.Address
	AdminPassword *password.Password
}

func (ut UpdateTenant) tenantFields() tenantbus.UpdateTenant {
	return tenantbus.UpdateTenant{
		Name:     ut.Name,
		Slug:     ut.Slug,
		Features: ut.Features,
	}
}

func (ut UpdateTenant) hasAdminFields() bool {
	return ut.AdminName != nil || ut.AdminEmail != nil || ut.AdminPassword != nil
}

// TenantSummary is a tenant with its derived membership counts.
type TenantSummary struct {
	tenantbus.Tenant
	MemberCount int
	AdminCount  int
}

// NewMember contains what is needed to invite a principal into a tenant.
type NewMember struct {
	Name     name.Name
	Email    mail.Address
	Password password.Password
	Role     role.Role
}

// Member is a membership enriched with the principal's identity details.
// Name and Email are empty when the identity store could not be reached.
type Member struct {
	memberbus.Membership
	Name  string
	Email string
}
