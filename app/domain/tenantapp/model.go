package tenantapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/sheet"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/business/types/status"
)

// =============================================================================
// Tenant (Output)

// Tenant represents an organization with its membership counts.
type Tenant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Status      string   `json:"status"`
	Features    Features `json:"features"`
	MemberCount int      `json:"member_count"`
	AdminCount  int      `json:"admin_count"`
	DateCreated string   `json:"created_at"`
	DateUpdated string   `json:"updated_at"`
}

// Encode implements the web.Encoder interface.
func (app Tenant) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppTenant(ts lifecyclebus.TenantSummary) Tenant {
	return Tenant{
		ID:          ts.ID.String(),
		Name:        ts.Name.String(),
		Slug:        ts.Slug.String(),
		Status:      ts.Status.String(),
		Features:    toAppFeatures(ts.Features),
		MemberCount: ts.MemberCount,
		AdminCount:  ts.AdminCount,
		DateCreated: ts.CreatedAt.Format(time.RFC3339),
		DateUpdated: ts.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppTenants(items []lifecyclebus.TenantSummary) []Tenant {
	app := make([]Tenant, len(items))
	for i, ts := range items {
		app[i] = toAppTenant(ts)
	}
	return app
}

type createdTenant struct {
	Tenant
	replayed bool
}

// HTTPStatus implements the web.httpStatus interface.
func (app createdTenant) HTTPStatus() int {
	if app.replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

// HTTPHeaders marks a response served from a stored idempotent result.
func (app createdTenant) HTTPHeaders() map[string]string {
	if app.replayed {
		return map[string]string{"Idempotent-Replayed": "true"}
	}
	return nil
}

// =============================================================================
// Features (Input/Output)

// Features is the optional integration configuration of an organization.
// The API key is never returned in clear text.
type Features struct {
	WhatsApp     *bool   `json:"whatsapp,omitempty"`
	Provider     *string `json:"provider,omitempty" validate:"omitempty,min=1,max=40"`
	InstanceName *string `json:"instance_name,omitempty" validate:"omitempty,max=120"`
	APIURL       *string `json:"api_url,omitempty" validate:"omitempty,url"`
	APIKey       *string `json:"api_key,omitempty" validate:"omitempty,max=512"`
	AIAssistant  *bool   `json:"ai_assistant,omitempty"`
}

// Encode implements the web.Encoder interface.
func (app Features) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

// Decode implements the web.Decoder interface.
func (app *Features) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Features) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toAppFeatures(cfg features.Config) Features {
	cfg = cfg.Masked()

	return Features{
		WhatsApp:     cfg.WhatsApp,
		Provider:     cfg.Provider,
		InstanceName: cfg.InstanceName,
		APIURL:       cfg.APIURL,
		APIKey:       cfg.APIKey,
		AIAssistant:  cfg.AIAssistant,
	}
}

func toBusFeatures(app Features) features.Config {
	return features.Config{
		WhatsApp:     app.WhatsApp,
		Provider:     app.Provider,
		InstanceName: app.InstanceName,
		APIURL:       app.APIURL,
		APIKey:       app.APIKey,
		AIAssistant:  app.AIAssistant,
	}
}

// =============================================================================
// NewTenant (Input)

// NewTenant defines the data needed to provision an organization and its
// first administrator.
type NewTenant struct {
	Name          string    `json:"name" validate:"required"`
	Slug          string    `json:"slug" validate:"required"`
	AdminName     string    `json:"admin_name" validate:"required"`
	AdminEmail    string    `json:"admin_email" validate:"required,email"`
	AdminPassword string    `json:"admin_password" validate:"required"`
	Features      *Features `json:"features"`
}

// Decode implements the web.Decoder interface.
func (app *NewTenant) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewTenant(app NewTenant) (lifecyclebus.NewTenant, error) {
	var fieldErrors errs.FieldErrors

	nme, err := name.Parse(app.Name)
	if err != nil {
		fieldErrors.Add("name", err)
	}

	sl, err := slug.Parse(app.Slug)
	if err != nil {
		fieldErrors.Add("slug", err)
	}

	adminName, err := name.Parse(app.AdminName)
	if err != nil {
		fieldErrors.Add("admin_name", err)
	}

	addr, err := mail.ParseAddress(app.AdminEmail)
	if err != nil {
		fieldErrors.Add("admin_email", err)
	}

	pass, err := password.Parse(app.AdminPassword)
	if err != nil {
		fieldErrors.Add("admin_password", err)
	}

	if fieldErrors != nil {
		return lifecyclebus.NewTenant{}, fieldErrors.ToError()
	}

	nt := lifecyclebus.NewTenant{
		Name:          nme,
		Slug:          sl,
		AdminName:     adminName,
		AdminEmail:    *addr,
		AdminPassword: pass,
	}

	if app.Features != nil {
		nt.Features = toBusFeatures(*app.Features)
	}

	return nt, nil
}

// =============================================================================
// UpdateTenant (Input)

// UpdateTenant defines the organization and administrator fields that may
// change. Absent fields are left untouched.
type UpdateTenant struct {
	Name          *string   `json:"name" validate:"omitempty"`
	Slug          *string   `json:"slug" validate:"omitempty"`
	Features      *Features `json:"features"`
	AdminName     *string   `json:"admin_name" validate:"omitempty"`
	AdminEmail    *string   `json:"admin_email" validate:"omitempty,email"`
	AdminPassword *string   `json:"admin_password" validate:"omitempty"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateTenant) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusUpdateTenant(app UpdateTenant) (lifecyclebus.UpdateTenant, error) {
	var fieldErrors errs.FieldErrors
	var ut lifecyclebus.UpdateTenant

	if app.Name != nil {
		nme, err := name.Parse(*app.Name)
		switch err {
		case nil:
			ut.Name = &nme
		default:
			fieldErrors.Add("name", err)
		}
	}

	if app.Slug != nil {
		sl, err := slug.Parse(*app.Slug)
		switch err {
		case nil:
			ut.Slug = &sl
		default:
			fieldErrors.Add("slug", err)
		}
	}

	if app.Features != nil {
		cfg := toBusFeatures(*app.Features)
		ut.Features = &cfg
	}

	if app.AdminName != nil {
		nme, err := name.Parse(*app.AdminName)
		switch err {
		case nil:
			ut.AdminName = &nme
		default:
			fieldErrors.Add("admin_name", err)
		}
	}

	if app.AdminEmail != nil {
		addr, err := mail.ParseAddress(*app.AdminEmail)
		switch err {
		case nil:
			ut.AdminEmail = addr
		default:
			fieldErrors.Add("admin_email", err)
		}
	}

	if app.AdminPassword != nil {
		pass, err := password.Parse(*app.AdminPassword)
		switch err {
		case nil:
			ut.AdminPassword = &pass
		default:
			fieldErrors.Add("admin_password", err)
		}
	}

	if fieldErrors != nil {
		return lifecyclebus.UpdateTenant{}, fieldErrors.ToError()
	}

	return ut, nil
}

// =============================================================================
// UpdateStatus (Input)

// UpdateStatus changes the lifecycle status of an organization. Deactivation
// is reserved for operator tooling.
type UpdateStatus struct {
	Status string `json:"status" validate:"required,oneof=active blocked"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateStatus) Decode(data []byte) error {
	return web.DecodeStrict(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateStatus) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusStatus(app UpdateStatus) (status.Status, error) {
	st, err := status.Parse(app.Status)
	if err != nil {
		return status.Status{}, errs.NewFieldErrors("status", err)
	}

	return st, nil
}

// =============================================================================
// Export (Output)

type export struct {
	data     []byte
	filename string
}

// Encode implements the web.Encoder interface.
func (e export) Encode() ([]byte, string, error) {
	return e.data, sheet.ContentType, nil
}

// HTTPHeaders implements the web.httpHeaders interface.
func (e export) HTTPHeaders() map[string]string {
	return map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", e.filename),
	}
}
