package checkapp

import (
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build       string
	Log         *logger.Logger
	DB          *sqlx.DB
	Idempotency *idempotency.Store
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg.Build, cfg.Log, cfg.DB, cfg.Idempotency)

	app.HandlerFuncNoMid(http.MethodGet, version, "/readiness", api.readiness)
	app.HandlerFuncNoMid(http.MethodGet, version, "/liveness", api.liveness)
}
