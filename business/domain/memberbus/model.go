package memberbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

// Membership binds a principal from the identity store to an organization
// with exactly one role. OrgID is uuid.Nil only for the super administrator.
type Membership struct {
	PrincipalID uuid.UUID
	OrgID       uuid.UUID
	Role        role.Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMembership contains information needed to create a new membership.
type NewMembership struct {
	PrincipalID uuid.UUID
	OrgID       uuid.UUID
	Role        role.Role
}

// UpdateMembership contains information needed to update a membership.
type UpdateMembership struct {
	OrgID *uuid.UUID
	Role  *role.Role
}
