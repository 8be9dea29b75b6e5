package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisCache wraps a shared Redis client with JSON serialization and
// per-call timeouts. All operations run through a circuit breaker so a
// down Redis degrades to fast misses instead of per-request timeouts.
type RedisCache struct {
	client  *redis.Client
	breaker *CircuitBreaker
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}
}

func (r *RedisCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
			return fmt.Errorf("failed to set cache: %w", err)
		}
		return nil
	})
}

// Get reports ErrCacheMiss both for absent keys and for an open
// breaker, so callers fall through to the database either way.
func (r *RedisCache) Get(key string, dest interface{}) error {
	var payload []byte
	err := r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to get from cache: %w", err)
		}
		payload = data
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitBreakerOpen) {
			return ErrCacheMiss
		}
		return err
	}
	if payload == nil {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		return r.client.Del(ctx, keys...).Err()
	})
}

// DeletePattern removes every key matching the glob pattern, scanning
// incrementally rather than blocking the server with KEYS.
func (r *RedisCache) DeletePattern(pattern string) error {
	return r.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) == 0 {
			return nil
		}
		return r.client.Del(ctx, keys...).Err()
	})
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// BreakerState exposes the breaker for health reporting.
func (r *RedisCache) BreakerState() CircuitBreakerState {
	return r.breaker.GetState()
}
