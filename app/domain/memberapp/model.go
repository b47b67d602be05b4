package memberapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
)

// Member represents a principal's membership in an organization.
type Member struct {
	PrincipalID string `json:"principal_id"`
	OrgID       string `json:"org_id,omitempty"`
	Role        string `json:"role"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	DateCreated string `json:"created_at"`
	DateUpdated string `json:"updated_at"`
}

// Encode implements the web.Encoder interface.
func (app Member) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppMembership(m memberbus.Membership) Member {
	app := Member{
		PrincipalID: m.PrincipalID.String(),
		Role:        m.Role.String(),
		DateCreated: m.CreatedAt.Format(time.RFC3339),
		DateUpdated: m.UpdatedAt.Format(time.RFC3339),
	}

	if m.OrgID != uuid.Nil {
		app.OrgID = m.OrgID.String()
	}

	return app
}

func toAppMember(m lifecyclebus.Member) Member {
	app := toAppMembership(m.Membership)
	app.Name = m.Name
	app.Email = m.Email

	return app
}

// Members is the set of members of an organization.
type Members []Member

// Encode implements the web.Encoder interface.
func (app Members) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppMembers(items []lifecyclebus.Member) Members {
	app := make(Members, len(items))
	for i, m := range items {
		app[i] = toAppMember(m)
	}
	return app
}

type createdMember struct {
	Member
}

// HTTPStatus implements the web.httpStatus interface.
func (createdMember) HTTPStatus() int {
	return http.StatusCreated
}

// =============================================================================

// NewMember defines the data needed to invite a principal into an
// organization.
type NewMember struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *NewMember) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewMember) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewMember(app NewMember) (lifecyclebus.NewMember, error) {
	var fieldErrors errs.FieldErrors

	nme, err := name.Parse(app.Name)
	if err != nil {
		fieldErrors.Add("name", err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		fieldErrors.Add("email", err)
	}

	pass, err := password.Parse(app.Password)
	if err != nil {
		fieldErrors.Add("password", err)
	}

	rle, err := role.Parse(app.Role)
	if err != nil {
		fieldErrors.Add("role", err)
	}

	if fieldErrors != nil {
		return lifecyclebus.NewMember{}, fieldErrors.ToError()
	}

	nm := lifecyclebus.NewMember{
		Name:     nme,
		Email:    *addr,
		Password: pass,
		Role:     rle,
	}

	return nm, nil
}

// =============================================================================

// NewSuperAdmin defines the data needed to add a platform super admin.
type NewSuperAdmin struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *NewSuperAdmin) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewSuperAdmin) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewSuperAdmin(app NewSuperAdmin) (name.Name, mail.Address, password.Password, error) {
	var fieldErrors errs.FieldErrors

	nme, err := name.Parse(app.Name)
	if err != nil {
		fieldErrors.Add("name", err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		fieldErrors.Add("email", err)
	}

	pass, err := password.Parse(app.Password)
	if err != nil {
		fieldErrors.Add("password", err)
	}

	if fieldErrors != nil {
		return name.Name{}, mail.Address{}, password.Password{}, fieldErrors.ToError()
	}

	return nme, *addr, pass, nil
}

// =============================================================================

// UpdateRole changes the role of a member.
type UpdateRole struct {
	Role string `json:"role" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateRole) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateRole) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}
