package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
)

// ActiveChecker confirms a caller's membership and organization still
// allow access.
type ActiveChecker interface {
	CheckTenantActive(ctx context.Context, caller policybus.Caller) error
}

// Authenticate validates the bearer token, resolves the caller and refuses
// members of an organization that is no longer active.
func Authenticate(a *auth.Auth, checker ActiveChecker) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			authStr := r.Header.Get("authorization")
			if authStr == "" {
				return errs.New(errs.Unauthenticated, errors.New("missing authorization header"))
			}

			claims, err := a.Authenticate(ctx, authStr)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			caller, err := claims.Caller()
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			if err := checker.CheckTenantActive(ctx, caller); err != nil {
				return errs.FromLifecycle(err)
			}

			ctx = setClaims(ctx, claims)
			ctx = setCaller(ctx, caller)

			return next(ctx, r)
		}

		return h
	}

	return m
}
