package policybus

import (
	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

// Reason is a stable code explaining a denied decision.
type Reason string

// Set of reasons a decision can be denied for.
const (
	ReasonNone                 Reason = ""
	ReasonNotAuthenticated     Reason = "not_authenticated"
	ReasonInsufficientRole     Reason = "insufficient_role"
	ReasonCrossTenantForbidden Reason = "cross_tenant_forbidden"
)

// Caller identifies the principal asking for an operation. OrgID is nil for
// a super administrator.
type Caller struct {
	PrincipalID uuid.UUID
	Role        role.Role
	OrgID       uuid.UUID
}

// IsZero reports whether no principal could be resolved.
func (c Caller) IsZero() bool {
	return c.PrincipalID == uuid.Nil || c.Role.IsZero()
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}
