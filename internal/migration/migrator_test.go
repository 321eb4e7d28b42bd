package migration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database/databasetest"
	"github.com/Additional-Code/serviceorders/internal/migration"
)

func TestUpDownRoundTrip(t *testing.T) {
	conns := databasetest.Open(t)
	mig, err := migration.New(config.Config{Database: config.Database{Driver: "sqlite"}}, conns, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	version, err := mig.Version()
	require.NoError(t, err)
	require.EqualValues(t, 1, version)

	// Applying again is a no-op.
	require.NoError(t, mig.Up(ctx))

	require.NoError(t, mig.Down(ctx, 0, true))
	version, err = mig.Version()
	require.NoError(t, err)
	require.Zero(t, version)

	var tables int
	require.NoError(t, conns.Primary.NewRaw(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'service_orders'",
	).Scan(ctx, &tables))
	require.Zero(t, tables)

	require.NoError(t, mig.Up(ctx))
	_, err = conns.Primary.NewRaw("SELECT id FROM service_orders").Exec(ctx)
	require.NoError(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	conns := databasetest.Open(t)
	_, err := migration.New(config.Config{Database: config.Database{Driver: "oracle"}}, conns, zap.NewNop())
	require.Error(t, err)
}
