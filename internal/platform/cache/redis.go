package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "telehealth"

// RedisProvider stores values in Redis under a key prefix.
type RedisProvider struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedis connects to the Redis instance at url (redis://host:port/db). An
// empty url yields a NoopProvider so caching can be switched off by config.
func NewRedis(ctx context.Context, url, prefix string) (Provider, error) {
	if strings.TrimSpace(url) == "" {
		return NoopProvider{}, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return newRedisProvider(client, prefix), nil
}

func newRedisProvider(client *redis.Client, prefix string) *RedisProvider {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisProvider{client: client, keyPrefix: prefix}
}

func (r *RedisProvider) key(k string) string {
	return r.keyPrefix + ":" + k
}

func (r *RedisProvider) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (r *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisProvider) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisProvider) Close() error {
	return r.client.Close()
}
