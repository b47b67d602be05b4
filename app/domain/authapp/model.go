package authapp

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
)

// Token is the result of a successful login.
type Token struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	OrgID string `json:"org_id,omitempty"`
}

// Encode implements the web.Encoder interface.
func (t Token) Encode() ([]byte, string, error) {
	data, err := json.Marshal(t)
	return data, "application/json", err
}

func toAppToken(token string, role string, orgID uuid.UUID) Token {
	t := Token{
		Token: token,
		Role:  role,
	}

	if orgID != uuid.Nil {
		t.OrgID = orgID.String()
	}

	return t
}

// Login holds the credentials of a principal.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *Login) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Login) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}
