package cache

import (
	"context"
	"errors"
	"time"

	"github.com/argentavis/qr-service/shared/redis"
)

// Redis adapts the shared Redis client to the SecretCache interface
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed secret cache
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Put implements SecretCache
func (r *Redis) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl)
}

// Get implements SecretCache
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

// GetDel implements SecretCache
func (r *Redis) GetDel(ctx context.Context, key string) (string, error) {
	val, err := r.client.GetDel(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

// Delete implements SecretCache
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	return r.client.Delete(ctx, keys...)
}

// IncrWithExpire implements SecretCache
func (r *Redis) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error) {
	return r.client.IncrWithExpire(ctx, key, window)
}
