// Package mid contains the set of middleware functions.
package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
)

func checkIsError(e web.Encoder) error {
	err, hasError := e.(error)
	if hasError {
		return err
	}

	return nil
}

type httpStatus interface {
	HTTPStatus() int
}

func statusOf(e web.Encoder) int {
	switch v := e.(type) {
	case httpStatus:
		return v.HTTPStatus()
	case error:
		return http.StatusInternalServerError
	}

	if e == nil {
		return http.StatusNoContent
	}

	return http.StatusOK
}

// =============================================================================

type ctxKey int

const (
	claimKey ctxKey = iota + 1
	callerKey
)

func setClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimKey, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) auth.Claims {
	v, ok := ctx.Value(claimKey).(auth.Claims)
	if !ok {
		return auth.Claims{}
	}
	return v
}

func setCaller(ctx context.Context, caller policybus.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller returns the authenticated caller from the context.
func GetCaller(ctx context.Context) (policybus.Caller, error) {
	v, ok := ctx.Value(callerKey).(policybus.Caller)
	if !ok {
		return policybus.Caller{}, errors.New("caller not found in context")
	}

	return v, nil
}
