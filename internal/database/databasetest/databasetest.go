// Package databasetest opens throwaway SQLite databases with the application schema applied.
package databasetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/internal/migration"
)

// Open returns migrated connections backed by a file in t.TempDir(). The pools
// are closed when the test finishes.
func Open(t *testing.T) *database.Connections {
	t.Helper()

	cfg := config.Config{
		Database: config.Database{
			Driver:       "sqlite",
			WriterDSN:    fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "service_orders.db")),
			MaxOpenConns: 4,
			MaxIdleConns: 4,
		},
	}

	conns, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conns.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, conns.Ping(ctx))

	mig, err := migration.New(cfg, conns, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))

	return conns
}
