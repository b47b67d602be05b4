package authapp

import (
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/ulule/limiter/v3"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *logger.Logger
	Auth      *auth.Auth
	Limiter   *limiter.Limiter
	Lifecycle *lifecyclebus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg.Auth, cfg.Lifecycle)

	var mw []web.MidFunc
	if cfg.Limiter != nil {
		mw = append(mw, mid.RateLimit(cfg.Log, cfg.Limiter))
	}

	app.HandlerFunc(http.MethodPost, version, "/auth/login", api.login, mw...)
}
