package tenantapp

import (
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *logger.Logger
	Auth        *auth.Auth
	Lifecycle   *lifecyclebus.Core
	Idempotency *idempotency.Store
}

// Routes adds specific routes for this group. Role checks happen in the
// lifecycle core, the middleware only establishes who the caller is.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth, cfg.Lifecycle)

	api := newApp(cfg.Log, cfg.Lifecycle, cfg.Idempotency)

	app.HandlerFunc(http.MethodGet, version, "/tenants", api.query, authen)
	app.HandlerFunc(http.MethodGet, version, "/tenants/export", api.export, authen)
	app.HandlerFunc(http.MethodPost, version, "/tenants", api.create, authen)
	app.HandlerFunc(http.MethodGet, version, "/tenants/{org_id}", api.queryByID, authen)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{org_id}", api.update, authen)
	app.HandlerFunc(http.MethodDelete, version, "/tenants/{org_id}", api.delete, authen)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{org_id}/status", api.updateStatus, authen)
	app.HandlerFunc(http.MethodGet, version, "/tenants/{org_id}/features", api.queryFeatures, authen)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{org_id}/features", api.updateFeatures, authen)
}
