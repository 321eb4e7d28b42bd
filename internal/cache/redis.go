package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

// redisStore namespaces every key with the configured prefix so several
// deployments can share one redis database.
type redisStore struct {
	client     *goredis.Client
	prefix     string
	defaultTTL time.Duration
}

func newRedisStore(lc fx.Lifecycle, cfg config.Cache, logger *zap.Logger) *redisStore {
	store := &redisStore{
		client: goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
		prefix:     cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
			}
			logger.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.KeyPrefix))
			return nil
		},
		OnStop: func(context.Context) error {
			return store.client.Close()
		},
	})

	return store
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	res, err := s.client.Get(ctx, s.key(key)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, err
	}
	return res, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *redisStore) key(key string) string {
	return namespacedKey(s.prefix, key)
}

func namespacedKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
