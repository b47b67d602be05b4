package tenantbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
)

// Tenant represents an organization in the system. Every membership other
// than the platform super administrator and every business record belongs
// to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID
	Name      name.Name
	Slug      slug.Slug
	Status    status.Status
	Features  features.Config
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTenant contains information needed to create a new tenant.
type NewTenant struct {
	Name     name.Name
	Slug     slug.Slug
	Features features.Config
}

// UpdateTenant contains information needed to update a tenant. Nil fields
// are left untouched.
type UpdateTenant struct {
	Name     *name.Name
	Slug     *slug.Slug
	Features *features.Config
}

// IsZero reports whether the update changes nothing.
func (ut UpdateTenant) IsZero() bool {
	return ut.Name == nil && ut.Slug == nil && ut.Features == nil
}
