package guestcart

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the slice of the cache the store needs: whole-value reads and
// TTL-attached whole-value writes. The store never mutates a cart in place;
// every write replaces the serialized aggregate.
type KV interface {
	// Get returns the value and whether the key existed.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value and attaches the TTL to the key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes the key and reports whether it existed.
	Del(ctx context.Context, key string) (bool, error)
}

// RedisKV implements KV on a go-redis client.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps a redis client.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
