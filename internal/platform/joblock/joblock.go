// Package joblock provides a named, time-limited lock over redis so periodic
// jobs running on more than one host do not fire concurrently. Holding the
// lock is best-effort coordination, not a correctness guarantee; jobs must
// stay idempotent without it.
package joblock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the slice of the redis API the lock uses.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Lock hands out single-flight locks backed by redis SET NX with expiry.
type Lock struct {
	client redisClient
}

// Connect dials the redis instance at url and verifies the connection.
func Connect(ctx context.Context, url string) (*Lock, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Lock{client: client}, nil
}

// New wraps an existing client.
func New(client redisClient) *Lock {
	return &Lock{client: client}
}

// Acquire takes the named lock for ttl. It returns false when another holder
// already has it. The ttl bounds how long a crashed holder can block others.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring lock %q: %w", key, err)
	}
	return ok, nil
}

// Release drops the named lock. Releasing an already-expired lock is harmless.
func (l *Lock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("releasing lock %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection.
func (l *Lock) Close() error {
	return l.client.Close()
}
