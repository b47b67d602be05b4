// Package checkapp maintains the app layer api for the check domain.
package checkapp

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type app struct {
	build string
	log   *logger.Logger
	db    *sqlx.DB
	idem  *idempotency.Store
}

func newApp(build string, log *logger.Logger, db *sqlx.DB, idem *idempotency.Store) *app {
	return &app{
		build: build,
		log:   log,
		db:    db,
		idem:  idem,
	}
}

// readiness checks if the database and redis are ready and if not will
// return a 500 status. Components the service runs without are skipped.
func (a *app) readiness(ctx context.Context, r *http.Request) web.Encoder {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if a.db != nil {
		if err := sqldb.StatusCheck(ctx, a.db); err != nil {
			a.log.Info(ctx, "readiness failure", "component", "database", "ERROR", err)
			return errs.New(errs.Internal, err)
		}
	}

	if a.idem != nil {
		if err := a.idem.Ping(ctx); err != nil {
			a.log.Info(ctx, "readiness failure", "component", "redis", "ERROR", err)
			return errs.New(errs.Internal, err)
		}
	}

	return nil
}

// liveness returns simple status info if the service is alive.
func (a *app) liveness(ctx context.Context, r *http.Request) web.Encoder {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	info := Info{
		Status:     "up",
		Build:      a.build,
		Host:       host,
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	return info
}
