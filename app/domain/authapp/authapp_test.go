package authapp_test

import (
	"net/http"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/apitest"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type token struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	OrgID string `json:"org_id"`
}

func loginRequest(email string, pass string) apitest.Request {
	return apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": email, "password": pass},
	}
}

func TestLogin(t *testing.T) {
	at := apitest.New(t, apitest.Options{})

	w := at.Do(t, loginRequest(apitest.RootEmail, apitest.RootPassword))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok token
	apitest.Decode(t, w, &tok)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, "super_admin", tok.Role)
	assert.Empty(t, tok.OrgID)

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants", Token: tok.Token})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("wrong password", func(t *testing.T) {
		w := at.Do(t, loginRequest(apitest.RootEmail, "not-the-password"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := at.Do(t, loginRequest("nobody@crm.test", apitest.RootPassword))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/auth/login", Body: `{"email":`})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := at.Do(t, loginRequest("not-an-email", "x"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		w := at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants", Token: tok.Token + "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLoginTenantAdmin(t *testing.T) {
	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	w := at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/tenants",
		Token:  root,
		Body: map[string]any{
			"name":           "Prime Realty",
			"slug":           "prime-realty",
			"admin_name":     "Ana Souza",
			"admin_email":    "ana@prime.test",
			"admin_password": "Adm1n!pass",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tn struct {
		ID string `json:"id"`
	}
	apitest.Decode(t, w, &tn)

	w = at.Do(t, loginRequest("ana@prime.test", "Adm1n!pass"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok token
	apitest.Decode(t, w, &tok)
	assert.Equal(t, "admin", tok.Role)
	assert.Equal(t, tn.ID, tok.OrgID)
}

func TestLoginRateLimit(t *testing.T) {
	lim, err := mid.NewLimiter("2-M", "test:login:", nil)
	require.NoError(t, err)

	at := apitest.New(t, apitest.Options{LoginLimiter: lim})

	for range 2 {
		w := at.Do(t, loginRequest(apitest.RootEmail, "wrong"))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	w := at.Do(t, loginRequest(apitest.RootEmail, apitest.RootPassword))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}
