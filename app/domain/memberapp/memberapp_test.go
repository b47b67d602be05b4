package memberapp_test

import (
	"net/http"
	"testing"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	PrincipalID string `json:"principal_id"`
	OrgID       string `json:"org_id"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

type appErr struct {
	Code   string            `json:"code"`
	Field  string            `json:"field"`
	Fields map[string]string `json:"fields"`
}

type fixture struct {
	at     *apitest.Test
	root   string
	admin  string
	orgID  string
	other  string
	selfID string
}

func setup(t *testing.T) fixture {
	t.Helper()

	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	orgID := createTenant(t, at, root, "prime-realty", "ana@prime.test")
	other := createTenant(t, at, root, "other-realty", "bob@other.test")

	w := at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": "ana@prime.test", "password": "Adm1n!pass"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		Token string `json:"token"`
	}
	apitest.Decode(t, w, &tok)

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + orgID + "/members", Token: root})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var mbrs []member
	apitest.Decode(t, w, &mbrs)
	require.Len(t, mbrs, 1)

	return fixture{
		at:     at,
		root:   root,
		admin:  tok.Token,
		orgID:  orgID,
		other:  other,
		selfID: mbrs[0].PrincipalID,
	}
}

func createTenant(t *testing.T, at *apitest.Test, token string, slug string, email string) string {
	t.Helper()

	w := at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/tenants",
		Token:  token,
		Body: map[string]any{
			"name":           "Org " + slug,
			"slug":           slug,
			"admin_name":     "Admin " + slug,
			"admin_email":    email,
			"admin_password": "Adm1n!pass",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tn struct {
		ID string `json:"id"`
	}
	apitest.Decode(t, w, &tn)

	return tn.ID
}

func newMember(email string, rle string) map[string]string {
	return map[string]string{
		"name":     "Member " + rle,
		"email":    email,
		"password": "Memb3r!pass",
		"role":     rle,
	}
}

func TestMemberLifecycle(t *testing.T) {
	f := setup(t)

	w := f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants/" + f.orgID + "/members", Token: f.admin, Body: newMember("caio@prime.test", "user")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var added member
	apitest.Decode(t, w, &added)
	assert.Equal(t, "user", added.Role)
	assert.Equal(t, f.orgID, added.OrgID)
	assert.Equal(t, "caio@prime.test", added.Email)

	w = f.at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + f.orgID + "/members", Token: f.admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var mbrs []member
	apitest.Decode(t, w, &mbrs)
	assert.Len(t, mbrs, 2)

	w = f.at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/members/" + added.PrincipalID + "/role", Token: f.admin, Body: map[string]string{"role": "professional"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var changed member
	apitest.Decode(t, w, &changed)
	assert.Equal(t, "professional", changed.Role)

	w = f.at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": "caio@prime.test", "password": "Memb3r!pass"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.at.Do(t, apitest.Request{Method: http.MethodDelete, URL: "/v1/members/" + added.PrincipalID, Token: f.admin})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": "caio@prime.test", "password": "Memb3r!pass"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.at.Do(t, apitest.Request{Method: http.MethodDelete, URL: "/v1/members/" + added.PrincipalID, Token: f.admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemberDenied(t *testing.T) {
	f := setup(t)

	t.Run("cross tenant", func(t *testing.T) {
		w := f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants/" + f.other + "/members", Token: f.admin, Body: newMember("x@other.test", "user")})
		require.Equal(t, http.StatusForbidden, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Equal(t, "cross_tenant_forbidden", e.Field)
	})

	t.Run("grant super admin", func(t *testing.T) {
		w := f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants/" + f.orgID + "/members", Token: f.admin, Body: newMember("root2@prime.test", "super_admin")})
		require.Equal(t, http.StatusForbidden, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Equal(t, "insufficient_role", e.Field)
	})

	t.Run("remove self", func(t *testing.T) {
		w := f.at.Do(t, apitest.Request{Method: http.MethodDelete, URL: "/v1/members/" + f.selfID, Token: f.admin})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Equal(t, "principal_id", e.Field)
	})

	t.Run("unknown role", func(t *testing.T) {
		w := f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants/" + f.orgID + "/members", Token: f.admin, Body: newMember("y@prime.test", "owner")})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Contains(t, e.Fields, "role")
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants/" + f.orgID + "/members", Token: f.admin, Body: newMember("bob@other.test", "user")})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		w := f.at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + f.orgID + "/members"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSuperAdmins(t *testing.T) {
	f := setup(t)

	body := map[string]string{"name": "Night Shift", "email": "night@crm.test", "password": "N1ght!pass"}

	w := f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/super-admins", Token: f.admin, Body: body})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/super-admins", Token: f.root, Body: body})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var added member
	apitest.Decode(t, w, &added)
	assert.Equal(t, "super_admin", added.Role)
	assert.Empty(t, added.OrgID)

	w = f.at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": "night@crm.test", "password": "N1ght!pass"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		Token string `json:"token"`
	}
	apitest.Decode(t, w, &tok)

	w = f.at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + f.orgID + "/members", Token: tok.Token})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/super-admins", Token: f.root, Body: map[string]string{"name": "No Mail"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
