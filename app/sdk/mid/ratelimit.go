package mid

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLimiter builds a limiter for the formatted rate, for example "10-M".
// The counters live in Redis when a client is given and in process memory
// otherwise.
func NewLimiter(formatted string, prefix string, client *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parsing rate %q: %w", formatted, err)
	}

	opts := limiter.StoreOptions{
		Prefix:          prefix,
		MaxRetry:        limiter.DefaultMaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}

	if client == nil {
		return limiter.New(memory.NewStoreWithOptions(opts), rate), nil
	}

	store, err := sredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("redis limiter store: %w", err)
	}

	return limiter.New(store, rate), nil
}

// RateLimit rejects a client address that exceeded the limiter's rate.
// When the counter store fails the request is let through and logged.
func RateLimit(log *logger.Logger, lim *limiter.Limiter) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			lctx, err := lim.Get(ctx, lim.GetIPKey(r))
			if err != nil {
				log.Warn(ctx, "ratelimit: store unavailable", "err", err)
				return next(ctx, r)
			}

			if w := web.GetWriter(ctx); w != nil {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			}

			if lctx.Reached {
				reset := time.Unix(lctx.Reset, 0).UTC().Format(time.RFC3339)
				return errs.Errorf(errs.ResourceExhausted, "too many requests, retry after %s", reset)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
