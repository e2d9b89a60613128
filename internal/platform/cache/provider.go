// Package cache provides a small byte-oriented cache abstraction with a
// Redis implementation and a no-op fallback.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Provider defines the cache operations the triage services need.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// NoopProvider implements Provider but never stores data.
type NoopProvider struct{}

// Get always returns ErrCacheMiss.
func (NoopProvider) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopProvider) Del(context.Context, string) error { return nil }

func (NoopProvider) Close() error { return nil }

// GetJSON reads key and decodes it into dest. A miss returns ErrCacheMiss.
func GetJSON(ctx context.Context, p Provider, key string, dest any) error {
	data, err := p.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, p Provider, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return p.Set(ctx, key, data, ttl)
}
