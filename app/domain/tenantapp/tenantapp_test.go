package tenantapp_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/apitest"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/sheet"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tenant struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Status      string         `json:"status"`
	Features    map[string]any `json:"features"`
	MemberCount int            `json:"member_count"`
	AdminCount  int            `json:"admin_count"`
}

type result struct {
	Items []tenant `json:"items"`
	Total int      `json:"total"`
}

type appErr struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field"`
	Fields  map[string]string `json:"fields"`
}

func newTenant(slug string, email string) map[string]any {
	return map[string]any{
		"name":           "Org " + slug,
		"slug":           slug,
		"admin_name":     "Admin " + slug,
		"admin_email":    email,
		"admin_password": "Adm1n!pass",
	}
}

func create(t *testing.T, at *apitest.Test, token string, slug string, email string) tenant {
	t.Helper()

	w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Token: token, Body: newTenant(slug, email)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got tenant
	apitest.Decode(t, w, &got)

	return got
}

func login(t *testing.T, at *apitest.Test, email string, password string) string {
	t.Helper()

	w := at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": email, "password": password},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		Token string `json:"token"`
	}
	apitest.Decode(t, w, &tok)

	return tok.Token
}

func TestCreateTenant(t *testing.T) {
	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	got := create(t, at, root, "prime-realty", "ana@prime.test")
	assert.Equal(t, "prime-realty", got.Slug)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, 1, got.MemberCount)
	assert.Equal(t, 1, got.AdminCount)

	t.Run("duplicate slug", func(t *testing.T) {
		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Token: root, Body: newTenant("prime-realty", "bia@prime.test")})
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Equal(t, "already_exists", e.Code)
		assert.Equal(t, "slug", e.Field)
	})

	t.Run("unknown field", func(t *testing.T) {
		body := newTenant("other", "x@other.test")
		body["plan"] = "gold"

		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Token: root, Body: body})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Token: root, Body: map[string]any{"name": "Only Name"}})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Contains(t, e.Fields, "slug")
		assert.Contains(t, e.Fields, "admin_email")
	})

	t.Run("bad slug", func(t *testing.T) {
		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Token: root, Body: newTenant("Not A Slug", "y@other.test")})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Contains(t, e.Fields, "slug")
	})

	t.Run("no token", func(t *testing.T) {
		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Body: newTenant("anon", "z@anon.test")})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin cannot create", func(t *testing.T) {
		admin := login(t, at, "ana@prime.test", "Adm1n!pass")

		w := at.Do(t, apitest.Request{Method: http.MethodPost, URL: "/v1/tenants", Token: admin, Body: newTenant("second", "b@second.test")})
		require.Equal(t, http.StatusForbidden, w.Code)

		var e appErr
		apitest.Decode(t, w, &e)
		assert.Equal(t, "insufficient_role", e.Field)
	})
}

func TestAdminScope(t *testing.T) {
	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	prime := create(t, at, root, "prime-realty", "ana@prime.test")
	other := create(t, at, root, "other-realty", "bob@other.test")

	admin := login(t, at, "ana@prime.test", "Adm1n!pass")

	w := at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants", Token: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res result
	apitest.Decode(t, w, &res)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, prime.ID, res.Items[0].ID)

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + other.ID, Token: admin})
	require.Equal(t, http.StatusForbidden, w.Code)

	var e appErr
	apitest.Decode(t, w, &e)
	assert.Equal(t, "cross_tenant_forbidden", e.Field)

	w = at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID, Token: admin, Body: map[string]any{"name": "Prime Imoveis"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var upd tenant
	apitest.Decode(t, w, &upd)
	assert.Equal(t, "Prime Imoveis", upd.Name)

	w = at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID + "/status", Token: admin, Body: map[string]any{"status": "blocked"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/export", Token: admin})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants", Token: root})
	require.Equal(t, http.StatusOK, w.Code)
	apitest.Decode(t, w, &res)
	assert.Equal(t, 2, res.Total)
}

func TestBlockedTenantLosesAccess(t *testing.T) {
	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	prime := create(t, at, root, "prime-realty", "ana@prime.test")
	admin := login(t, at, "ana@prime.test", "Adm1n!pass")

	w := at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID + "/status", Token: root, Body: map[string]any{"status": "blocked"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + prime.ID, Token: admin})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = at.Do(t, apitest.Request{
		Method: http.MethodPost,
		URL:    "/v1/auth/login",
		Body:   map[string]string{"email": "ana@prime.test", "password": "Adm1n!pass"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID + "/status", Token: root, Body: map[string]any{"status": "inactive"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeatures(t *testing.T) {
	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	prime := create(t, at, root, "prime-realty", "ana@prime.test")

	body := map[string]any{
		"whatsapp": true,
		"provider": "evolution",
		"api_url":  "https://wa.prime.test",
		"api_key":  "secret-key",
	}

	w := at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID + "/features", Token: root, Body: body})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	admin := login(t, at, "ana@prime.test", "Adm1n!pass")

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + prime.ID + "/features", Token: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got map[string]any
	apitest.Decode(t, w, &got)
	assert.Equal(t, true, got["whatsapp"])
	assert.Equal(t, "********", got["api_key"])

	w = at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID + "/features", Token: admin, Body: map[string]any{"ai_assistant": true}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = at.Do(t, apitest.Request{Method: http.MethodPut, URL: "/v1/tenants/" + prime.ID + "/features", Token: root, Body: map[string]any{"api_url": "not a url"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportAndDelete(t *testing.T) {
	at := apitest.New(t, apitest.Options{})
	root := at.Token(t, at.Root)

	prime := create(t, at, root, "prime-realty", "ana@prime.test")

	w := at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/export", Token: root})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, sheet.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, w.Body.Len())

	w = at.Do(t, apitest.Request{Method: http.MethodDelete, URL: "/v1/tenants/" + prime.ID, Token: root})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/" + prime.ID, Token: root})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/tenants/not-a-uuid", Token: root})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotentCreate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	at := apitest.New(t, apitest.Options{
		Idempotency: idempotency.NewStore(logger.New(io.Discard, logger.LevelInfo, "TEST", nil), client, "test:", time.Hour),
	})
	root := at.Token(t, at.Root)

	req := apitest.Request{
		Method:  http.MethodPost,
		URL:     "/v1/tenants",
		Token:   root,
		Body:    newTenant("prime-realty", "ana@prime.test"),
		Headers: map[string]string{"Idempotency-Key": "create-prime"},
	}

	w := at.Do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first tenant
	apitest.Decode(t, w, &first)

	w = at.Do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))

	var second tenant
	apitest.Decode(t, w, &second)
	assert.Equal(t, first.ID, second.ID)

	t.Run("failed request frees the key", func(t *testing.T) {
		bad := req
		bad.Body = newTenant("prime-realty", "other@prime.test")
		bad.Headers = map[string]string{"Idempotency-Key": "dup-slug"}

		w := at.Do(t, bad)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, mr.Exists("test:"+at.Root.PrincipalID.String()+":dup-slug"))
	})

	t.Run("in flight", func(t *testing.T) {
		mr.Set("test:"+at.Root.PrincipalID.String()+":busy", "pending")

		busy := req
		busy.Headers = map[string]string{"Idempotency-Key": "busy"}

		w := at.Do(t, busy)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
