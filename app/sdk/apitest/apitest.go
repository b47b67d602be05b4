// Package apitest provides support for executing api test logic against an
// in-memory instance of the service.
package apitest

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"testing/fstest"

	"github.com/jcpaschoal/crm-tenancy/api/cmd/build/all"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/buses"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mux"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/foundation/keystore"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel/trace/noop"
)

const kid = "54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"

// Super admin credentials seeded into every test instance.
const (
	RootEmail    = "root@crm.test"
	RootPassword = "r00t!pass"
)

// Options tune the instance built by New.
type Options struct {
	LoginLimiter *limiter.Limiter
	Idempotency  *idempotency.Store
}

// Test contains functions for executing an api test.
type Test struct {
	Log     *logger.Logger
	Auth    *auth.Auth
	Buses   buses.Buses
	Handler http.Handler
	Root    policybus.Caller
}

// New constructs a service instance on the in-memory stores with a seeded
// super admin.
func New(t *testing.T, opts Options) *Test {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	b, err := buses.New(buses.Config{Log: log})
	require.NoError(t, err)

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ks := keystore.New()
	_, err = ks.LoadByFileSystem(fstest.MapFS{kid + ".pem": {Data: []byte(keystore.EncodePrivateKey(pk))}})
	require.NoError(t, err)

	a := auth.New(auth.Config{
		Log:       log,
		KeyLookup: ks,
		ActiveKID: kid,
		Issuer:    "crm-tenancy-test",
	})

	m, err := b.Lifecycle.SeedSuperAdmin(context.Background(), name.MustParse("Root"), mail.Address{Address: RootEmail}, password.MustParse(RootPassword))
	require.NoError(t, err)

	cfg := mux.Config{
		Build:        "test",
		Log:          log,
		Tracer:       noop.NewTracerProvider().Tracer("test"),
		Auth:         a,
		LoginLimiter: opts.LoginLimiter,
		Idempotency:  opts.Idempotency,
		BusConfig: mux.BusConfig{
			Lifecycle: b.Lifecycle,
		},
	}

	return &Test{
		Log:     log,
		Auth:    a,
		Buses:   b,
		Handler: mux.WebAPI(cfg, all.Routes()),
		Root:    policybus.Caller{PrincipalID: m.PrincipalID, Role: role.SuperAdmin},
	}
}

// Token signs a token for the caller.
func (at *Test) Token(t *testing.T, caller policybus.Caller) string {
	t.Helper()

	token, err := at.Auth.GenerateToken(caller)
	require.NoError(t, err)

	return token
}

// Request describes a single call against the service.
type Request struct {
	Method  string
	URL     string
	Token   string
	Body    any
	Headers map[string]string
}

// Do executes the request and returns the recorded response.
func (at *Test) Do(t *testing.T, req Request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader = http.NoBody
	if req.Body != nil {
		switch v := req.Body.(type) {
		case string:
			body = bytes.NewBufferString(v)
		default:
			data, err := json.Marshal(v)
			require.NoError(t, err)
			body = bytes.NewReader(data)
		}
	}

	r := httptest.NewRequest(req.Method, req.URL, body)
	r.RemoteAddr = "192.0.2.10:41000"

	if req.Token != "" {
		r.Header.Set("Authorization", "Bearer "+req.Token)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	at.Handler.ServeHTTP(w, r)

	return w
}

// Decode unmarshals a recorded JSON response into v.
func Decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
