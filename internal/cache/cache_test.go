package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

func TestNewStoreNoop(t *testing.T) {
	store, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Driver: "noop"}}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "orders:1", []byte("{}"), time.Minute))
	_, err = store.Get(ctx, "orders:1")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, store.Delete(ctx, "orders:1"))
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Driver: "memcached"}}, zap.NewNop())
	require.Error(t, err)
}

func TestRedisStoreRejectsEmptyKeys(t *testing.T) {
	store := &redisStore{prefix: "serviceorders"}
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.Error(t, store.Set(ctx, "", nil, 0))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestNamespacedKey(t *testing.T) {
	require.Equal(t, "serviceorders:orders:1", namespacedKey("serviceorders", "orders:1"))
	require.Equal(t, "orders:1", namespacedKey("", "orders:1"))
}

type mapStore map[string][]byte

func (m mapStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m mapStore) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestJSONHelpers(t *testing.T) {
	type order struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
	}
	ctx := context.Background()
	store := mapStore{}

	require.NoError(t, SetJSON(ctx, store, "orders:1", order{ID: 1, Reference: "SO-1"}, time.Minute))
	got, err := GetJSON[order](ctx, store, "orders:1")
	require.NoError(t, err)
	require.Equal(t, &order{ID: 1, Reference: "SO-1"}, got)

	_, err = GetJSON[order](ctx, store, "orders:2")
	require.ErrorIs(t, err, ErrCacheMiss)

	store["orders:3"] = []byte("{")
	_, err = GetJSON[order](ctx, store, "orders:3")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCacheMiss)

	_, err = GetJSON[order](ctx, nil, "orders:1")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, SetJSON(ctx, nil, "orders:1", order{}, 0))
}
