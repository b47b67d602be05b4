package userbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
)

// User represents a local account in the identity store.
type User struct {
	ID           uuid.UUID
	Name         name.Name
	Email        mail.Address
	PasswordHash []byte
	Verified     bool
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	Name     name.Name
	Email    mail.Address
	Password password.Password
	Verified bool
}

// UpdateUser contains information needed to update a user.
type UpdateUser struct {
	Name     *name.Name
	Email    *mail.Address
	Password *password.Password
	Verified *bool
	Enabled  *bool
}
