package errs

import (
	"errors"

	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
)

// Invalid converts a decode or validation failure into an InvalidArgument
// error, keeping any field level detail.
func Invalid(err error) *Error {
	if fe := GetFieldErrors(err); fe != nil {
		return fe.ToError()
	}

	if e := GetError(err); e != nil {
		return e
	}

	return New(InvalidArgument, err)
}

// FromLifecycle maps a lifecycle operation failure onto an app error.
// Errors that did not come from a lifecycle operation are logged only.
func FromLifecycle(err error) *Error {
	var le *lifecyclebus.Error
	if !errors.As(err, &le) {
		return Errorf(InternalOnlyLog, "lifecycle: %s", err)
	}

	e := Error{
		Message: le.Message,
		Field:   le.Field,
	}

	switch le.Kind {
	case lifecyclebus.KindAuthenticationMissing:
		e.Code = Unauthenticated

	case lifecyclebus.KindAuthorizationDenied:
		e.Code = PermissionDenied
		e.Field = string(le.Reason)

	case lifecyclebus.KindValidationFailed:
		e.Code = InvalidArgument

		switch {
		case errors.Is(err, tenantbus.ErrUniqueSlug), errors.Is(err, identitybus.ErrEmailExists):
			e.Code = AlreadyExists
		case errors.Is(err, tenantbus.ErrNotFound):
			e.Code = NotFound
		}

	case lifecyclebus.KindPartialFailure:
		e.Code = PartialFailure

	default:
		e.Code = Internal
	}

	return &e
}
