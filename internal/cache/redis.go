package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on a Redis server. This is the default backend: it
// survives process restarts and expires entries server-side.
type RedisKV struct {
	client *redis.Client
}

var (
	_ KV     = (*RedisKV)(nil)
	_ Pinger = (*RedisKV)(nil)
)

// NewRedisKV connects to addr (e.g. "localhost:6379") using the given
// logical database.
func NewRedisKV(addr, password string, db int) *RedisKV {
	return &RedisKV{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Get implements KV.Get. redis.Nil is a plain miss, not an error.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set implements KV.Set.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Delete implements KV.Delete.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping checks if Redis is reachable. Used for health checks.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying connection pool. Call during shutdown.
func (r *RedisKV) Close() error {
	return r.client.Close()
}
