package identitybus

import (
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
)

// Identity is an account known to the identity store.
type Identity struct {
	ID       uuid.UUID
	Name     string
	Email    mail.Address
	Verified bool
}

// NewIdentity contains what is needed to create an account.
type NewIdentity struct {
	Name     name.Name
	Email    mail.Address
	Password password.Password
	Verified bool
}

// UpdateIdentity contains the account fields that may change. Nil fields
// are left untouched.
type UpdateIdentity struct {
	Name     *name.Name
	Email    *mail.Address
	Password *password.Password
}

// IsZero reports whether the update changes nothing.
func (ui UpdateIdentity) IsZero() bool {
	return ui.Name == nil && ui.Email == nil && ui.Password == nil
}
