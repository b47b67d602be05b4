// Package all binds all the routes into the specified app.
package all

import (
	"github.com/jcpaschoal/crm-tenancy/app/domain/authapp"
	"github.com/jcpaschoal/crm-tenancy/app/domain/checkapp"
	"github.com/jcpaschoal/crm-tenancy/app/domain/memberapp"
	"github.com/jcpaschoal/crm-tenancy/app/domain/tenantapp"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mux"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouterAdder interface.
func (add) Add(app *web.App, cfg mux.Config) {
	checkapp.Routes(app, checkapp.Config{
		Build:       cfg.Build,
		Log:         cfg.Log,
		DB:          cfg.DB,
		Idempotency: cfg.Idempotency,
	})

	authapp.Routes(app, authapp.Config{
		Log:       cfg.Log,
		Auth:      cfg.Auth,
		Limiter:   cfg.LoginLimiter,
		Lifecycle: cfg.BusConfig.Lifecycle,
	})

	tenantapp.Routes(app, tenantapp.Config{
		Log:         cfg.Log,
		Auth:        cfg.Auth,
		Lifecycle:   cfg.BusConfig.Lifecycle,
		Idempotency: cfg.Idempotency,
	})

	memberapp.Routes(app, memberapp.Config{
		Auth:      cfg.Auth,
		Lifecycle: cfg.BusConfig.Lifecycle,
	})
}
