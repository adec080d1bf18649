// Package redisstate 提供 repository.CounterStore 的 Redis 实现。
package redisstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCounterStore 是 CounterStore 接口的 Redis 实现。
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore 创建 RedisCounterStore 实例。
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	if client == nil {
		panic("redis client cannot be nil for RedisCounterStore")
	}
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisCounterStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: incr %s: %w", key, err)
	}
	return count, nil
}

func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis: expire %s: %w", key, err)
	}
	return nil
}

func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: ttl %s: %w", key, err)
	}
	return ttl, nil
}

func (s *RedisCounterStore) MGet(ctx context.Context, keys []string) ([]*string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget %d keys: %w", len(keys), err)
	}
	return toStringPtrs(values), nil
}

func (s *RedisCounterStore) HMGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	values, err := s.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: hmget %s: %w", key, err)
	}
	return toStringPtrs(values), nil
}

func (s *RedisCounterStore) HMSet(ctx context.Context, key string, fields map[string]string) error {
	args := make(map[string]interface{}, len(fields))
	for field, value := range fields {
		args[field] = value
	}
	if err := s.client.HSet(ctx, key, args).Err(); err != nil {
		return fmt.Errorf("redis: hmset %s: %w", key, err)
	}
	return nil
}

func (s *RedisCounterStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: del %d keys: %w", len(keys), err)
	}
	return nil
}

func toStringPtrs(values []interface{}) []*string {
	result := make([]*string, len(values))
	for i, value := range values {
		if value == nil {
			continue
		}
		if str, ok := value.(string); ok {
			result[i] = &str
		}
	}
	return result
}
