// Package idempotency remembers the outcome of a request keyed by a client
// supplied Idempotency-Key so a retried request returns the first result.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/redis/go-redis/v9"
)

// Set of error variables for the idempotency store.
var (
	ErrInFlight = errors.New("request with this idempotency key is still in flight")
)

const pending = "pending"

// Store keeps idempotency records in redis.
type Store struct {
	log    *logger.Logger
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore constructs a redis backed store. Records live for ttl.
func NewStore(log *logger.Logger, client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		log:    log,
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Reserve claims the key for a new request. When the key already holds a
// completed result that result is returned with done set. A key that is
// reserved but not completed yields ErrInFlight.
func (s *Store) Reserve(ctx context.Context, key string) (result string, done bool, err error) {
	k := s.key(key)

	ok, err := s.client.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("setnx: %w", err)
	}

	if ok {
		return "", false, nil
	}

	v, err := s.client.Get(ctx, k).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Expired between the two calls. Let the caller retry.
		return "", false, ErrInFlight

	case err != nil:
		return "", false, fmt.Errorf("get: %w", err)
	}

	if v == pending {
		return "", false, ErrInFlight
	}

	return v, true, nil
}

// Complete stores the result for a reserved key. The write is not cancelled
// with ctx: a client that went away after the work finished still gets the
// stored result on retry.
func (s *Store) Complete(ctx context.Context, key string, result string) error {
	ctx = context.WithoutCancel(ctx)

	if err := s.client.Set(ctx, s.key(key), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	return nil
}

// Release frees a reserved key after a failed request so the client may
// retry with the same key. Like Complete it outlives ctx.
func (s *Store) Release(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		s.log.Warn(ctx, "idempotency", "status", "release failed", "key", key, "err", err)
	}
}

// Ping reports whether redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}
