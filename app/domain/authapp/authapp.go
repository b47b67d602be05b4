// Package authapp maintains the app layer api for authentication.
package authapp

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
)

type app struct {
	auth      *auth.Auth
	lifecycle *lifecyclebus.Core
}

func newApp(auth *auth.Auth, lifecycle *lifecyclebus.Core) *app {
	return &app{
		auth:      auth,
		lifecycle: lifecycle,
	}
}

// login checks the credentials and membership of a principal and issues a
// token carrying the principal id, role and organization.
func (a *app) login(ctx context.Context, r *http.Request) web.Encoder {
	var req Login
	if err := web.Decode(r, &req); err != nil {
		return errs.Invalid(err)
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		return errs.NewFieldErrors("email", err)
	}

	caller, err := a.lifecycle.Login(ctx, *addr, req.Password)
	if err != nil {
		return errs.FromLifecycle(err)
	}

	token, err := a.auth.GenerateToken(caller)
	if err != nil {
		return errs.Errorf(errs.Internal, "generate token: %s", err)
	}

	return toAppToken(token, caller.Role.String(), caller.OrgID)
}
