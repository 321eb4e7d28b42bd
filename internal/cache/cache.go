// Package cache holds the optional out-of-process cache used for single order lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

// Store is a byte-oriented key/value cache with expirations.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore returns the store selected by CACHE_DRIVER.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Cache.Driver {
	case "noop":
		logger.Info("order cache disabled; reads go straight to the database")
		return noopStore{}, nil
	case "redis":
		return newRedisStore(lc, cfg.Cache, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// GetJSON loads key from s and decodes it into a new T. A nil store always misses.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	if s == nil {
		return nil, ErrCacheMiss
	}
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return &v, nil
}

// SetJSON encodes v and stores it under key. A nil store is a no-op.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (noopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopStore) Delete(context.Context, string) error                     { return nil }
