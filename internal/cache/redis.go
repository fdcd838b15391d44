package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache caches generated read-path payloads (insights, forecasts) so
// repeated dashboard loads do not re-invoke the model. A nil *RedisCache is a
// valid no-op cache.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// RedisCache implements ResponseCache on Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at addr.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Get returns the cached value for key, if present.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if r == nil {
		return "", false
	}
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key with the given TTL. Errors are ignored; the
// cache is an optimization, never a dependency.
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if r == nil {
		return
	}
	r.client.Set(ctx, key, value, ttl)
}

// Delete drops the cached value for key, if any. Errors are ignored.
func (r *RedisCache) Delete(ctx context.Context, key string) {
	if r == nil {
		return
	}
	r.client.Del(ctx, key)
}

// Ping verifies the connection. Used at startup to log cache availability.
func (r *RedisCache) Ping(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}
