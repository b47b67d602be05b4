package lifecyclebus

import (
	"errors"
	"fmt"

	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
)

// ErrSuperAdminExists is returned by SeedSuperAdmin once the platform has a
// super admin.
var ErrSuperAdminExists = errors.New("super admin already exists")

// Kind classifies an operation failure.
type Kind string

// Set of failure kinds an operation can report.
const (
	KindAuthenticationMissing Kind = "authentication_missing"
	KindAuthorizationDenied   Kind = "authorization_denied"
	KindValidationFailed      Kind = "validation_failed"
	KindExternalStepFailed    Kind = "external_step_failed"
	KindPartialFailure        Kind = "partial_failure"
)

// Error is the typed result of a failed operation. Err carries the
// underlying cause so callers can match sentinel errors such as
// tenantbus.ErrNotFound.
type Error struct {
	Kind    Kind
	Reason  policybus.Reason
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a lifecycle error, or the empty kind when err
// did not come from this package.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

func unauthenticated(msg string, err error) *Error {
	return &Error{
		Kind:    KindAuthenticationMissing,
		Reason:  policybus.ReasonNotAuthenticated,
		Message: msg,
		Err:     err,
	}
}

func denied(reason policybus.Reason, msg string) *Error {
	return &Error{
		Kind:    KindAuthorizationDenied,
		Reason:  reason,
		Message: msg,
	}
}

func invalid(field string, msg string, err error) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Field:   field,
		Message: msg,
		Err:     err,
	}
}

func external(msg string, err error) *Error {
	return &Error{
		Kind:    KindExternalStepFailed,
		Message: msg,
		Err:     err,
	}
}

func partial(field string, msg string, err error) *Error {
	return &Error{
		Kind:    KindPartialFailure,
		Field:   field,
		Message: msg,
		Err:     err,
	}
}
