package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database"
)

//go:embed sql/*/*.sql
var migrationsFS embed.FS

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// AutoMigrate applies pending migrations on start when DB_AUTO_MIGRATE is set.
// List it before the servers so its hook runs first.
var AutoMigrate = fx.Module("auto_migrate",
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, mig *Migrator) {
		if !cfg.Database.AutoMigrate {
			return
		}
		lc.Append(fx.Hook{
			OnStart: mig.Up,
		})
	}),
)

// Migrator wraps goose operations.
type Migrator struct {
	db     *bun.DB
	dir    string
	logger *zap.Logger
}

// New constructs a goose-backed migrator for the configured driver.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, dir, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger: logger.Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}

	return &Migrator{
		db:     conns.Primary,
		dir:    dir,
		logger: logger,
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db.DB, m.dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	m.logger.Info("migrations applied", zap.String("dir", m.dir))

	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		if err := goose.DownToContext(ctx, m.db.DB, m.dir, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))

		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, m.db.DB, m.dir); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))

	return nil
}

// Version reports the currently applied schema version.
func (m *Migrator) Version() (int64, error) {
	return goose.GetDBVersion(m.db.DB)
}

func gooseDialect(driver string) (dialect string, dir string, err error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", "sql/postgres", nil
	case "mysql":
		return "mysql", "sql/mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", "sql/sqlite", nil
	default:
		return "", "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "no migrations")
}

type gooseLogger struct {
	logger *zap.SugaredLogger
}

func (g gooseLogger) Printf(format string, args ...interface{}) {
	g.logger.Debugf(strings.TrimSuffix(format, "\n"), args...)
}

func (g gooseLogger) Fatalf(format string, args ...interface{}) {
	g.logger.Fatalf(strings.TrimSuffix(format, "\n"), args...)
}
