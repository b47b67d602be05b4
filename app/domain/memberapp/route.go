package memberapp

import (
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth      *auth.Auth
	Lifecycle *lifecyclebus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth, cfg.Lifecycle)

	api := newApp(cfg.Lifecycle)

	app.HandlerFunc(http.MethodGet, version, "/tenants/{org_id}/members", api.query, authen)
	app.HandlerFunc(http.MethodPost, version, "/tenants/{org_id}/members", api.create, authen)
	app.HandlerFunc(http.MethodPut, version, "/members/{principal_id}/role", api.updateRole, authen)
	app.HandlerFunc(http.MethodDelete, version, "/members/{principal_id}", api.delete, authen)
	app.HandlerFunc(http.MethodPost, version, "/super-admins", api.createSuperAdmin, authen)
}
