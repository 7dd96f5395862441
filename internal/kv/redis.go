package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spendtrail/spendtraild/internal/config"
)

// RedisStore persists slots in Redis. Slots are device-local state, so no
// TTL is applied: a queued transaction must survive until drained.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis client from storage configuration.
func NewRedisClient(cfg config.StorageConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// NewRedisStore creates a Store backed by a Redis client. The profile name
// namespaces the slots so profiles can share one Redis instance.
func NewRedisStore(client *redis.Client, profileName string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: fmt.Sprintf("spendtrail:%s:", profileName),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get slot %q from redis: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set slot %q in redis: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete slot %q from redis: %w", key, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
