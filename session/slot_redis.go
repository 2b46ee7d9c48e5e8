package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the token under a single Redis key, <prefix>:access_token.
type RedisSlot struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisSlot creates a [RedisSlot]. An empty prefix defaults to "gac".
// ttl bounds how long a written token survives in Redis; zero keeps it until
// erased.
func NewRedisSlot(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSlot {
	if prefix == "" {
		prefix = "gac"
	}
	return &RedisSlot{
		redis: client,
		key:   prefix + ":access_token",
		ttl:   ttl,
	}
}

// Key returns the Redis key holding the token.
func (r *RedisSlot) Key() string {
	return r.key
}

// ReadToken returns the token, or "" when the key is absent.
func (r *RedisSlot) ReadToken(ctx context.Context) (string, error) {
	token, err := r.redis.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return token, nil
}

// WriteToken sets the key.
func (r *RedisSlot) WriteToken(ctx context.Context, token string) error {
	if err := r.redis.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return nil
}

// EraseToken deletes the key.
func (r *RedisSlot) EraseToken(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (r *RedisSlot) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	return time.Since(start), nil
}
