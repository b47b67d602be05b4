package checkapp_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/apitest"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	at := apitest.New(t, apitest.Options{})

	w := at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/liveness"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info struct {
		Status     string `json:"status"`
		Build      string `json:"build"`
		GOMAXPROCS int    `json:"GOMAXPROCS"`
	}
	apitest.Decode(t, w, &info)
	assert.Equal(t, "up", info.Status)
	assert.Equal(t, "test", info.Build)
	assert.Positive(t, info.GOMAXPROCS)
}

func TestReadiness(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		at := apitest.New(t, apitest.Options{})

		w := at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/readiness"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { client.Close() })

		at := apitest.New(t, apitest.Options{
			Idempotency: idempotency.NewStore(nil, client, "test:", time.Minute),
		})

		w := at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/readiness"})
		assert.Equal(t, http.StatusNoContent, w.Code)

		mr.Close()

		w = at.Do(t, apitest.Request{Method: http.MethodGet, URL: "/v1/readiness"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
