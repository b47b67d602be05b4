package identitygotrue

import (
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
)

type userMetadata struct {
	Name string `json:"name,omitempty"`
}

type adminUserRequest struct {
	Email        string        `json:"email,omitempty"`
	Password     string        `json:"password,omitempty"`
	EmailConfirm bool          `json:"email_confirm,omitempty"`
	UserMetadata *userMetadata `json:"user_metadata,omitempty"`
}

type gotrueUser struct {
	ID               string       `json:"id"`
	Email            string       `json:"email"`
	EmailConfirmedAt *string      `json:"email_confirmed_at"`
	UserMetadata     userMetadata `json:"user_metadata"`
}

type usersPage struct {
	Users []gotrueUser `json:"users"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	User gotrueUser `json:"user"`
}

type apiError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

func (e *apiError) text() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	}

	return e.ErrorCode
}

func toIdentity(u gotrueUser) (identitybus.Identity, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return identitybus.Identity{}, fmt.Errorf("parse id: %w", err)
	}

	idn := identitybus.Identity{
		ID:       id,
		Name:     u.UserMetadata.Name,
		Email:    mail.Address{Name: u.UserMetadata.Name, Address: u.Email},
		Verified: u.EmailConfirmedAt != nil,
	}

	return idn, nil
}
