package errs_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestCheckReportsJSONFieldNames(t *testing.T) {
	err := errs.Check(login{Email: "not-an-email"})
	require.Error(t, err)
	require.True(t, errs.IsFieldErrors(err))

	fields := errs.GetFieldErrors(err).Fields()
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	e := errs.Invalid(err)
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus())
	assert.Len(t, e.Fields, 2)
}

func TestCheckPasses(t *testing.T) {
	assert.NoError(t, errs.Check(login{Email: "ana@prime.test", Password: "x"}))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   errs.ErrCode
		status int
	}{
		{errs.Unauthenticated, http.StatusUnauthorized},
		{errs.PermissionDenied, http.StatusForbidden},
		{errs.AlreadyExists, http.StatusConflict},
		{errs.PartialFailure, http.StatusBadGateway},
		{errs.ResourceExhausted, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, errs.New(tt.code, errors.New("x")).HTTPStatus())
		})
	}
}

func TestCodeText(t *testing.T) {
	var code errs.ErrCode
	require.NoError(t, code.UnmarshalText([]byte("partial_failure")))
	assert.Equal(t, errs.PartialFailure, code)

	assert.Error(t, code.UnmarshalText([]byte("nope")))
}
