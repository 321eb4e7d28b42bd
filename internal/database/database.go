package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/config"
)

// Handle hands out query executors for a unit of work. Reads may be served by
// a replica; writes always go to the primary.
type Handle interface {
	Reader(ctx context.Context) (bun.IDB, error)
	Writer(ctx context.Context) (bun.IDB, error)
}

// Connections bundles the primary and replica bun pools.
type Connections struct {
	Primary *bun.DB
	Replica *bun.DB
	Driver  string
}

var _ Handle = (*Connections)(nil)

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New establishes primary and replica pools backed by Bun and ties them to the Fx lifecycle.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	conns, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conns.Ping(ctx); err != nil {
				return err
			}
			logger.Info("database connected", zap.String("driver", cfg.Database.Driver))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return conns.Close()
		},
	})

	return conns, nil
}

// Open builds the pools without registering lifecycle hooks. The replica
// shares the primary pool unless a distinct reader DSN is configured.
func Open(cfg config.Database) (*Connections, error) {
	drv, ok := drivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	primary, err := drv.open(cfg, cfg.WriterDSN)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	conns := &Connections{Primary: primary, Replica: primary, Driver: cfg.Driver}
	if cfg.ReaderDSN == "" || cfg.ReaderDSN == cfg.WriterDSN {
		return conns, nil
	}

	if conns.Replica, err = drv.open(cfg, cfg.ReaderDSN); err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	return conns, nil
}

// Reader returns the replica pool.
func (c *Connections) Reader(context.Context) (bun.IDB, error) {
	return c.Replica, nil
}

// Writer returns the primary pool.
func (c *Connections) Writer(context.Context) (bun.IDB, error) {
	return c.Primary, nil
}

// Ping verifies both pools answer within a short deadline.
func (c *Connections) Ping(ctx context.Context) error {
	for _, p := range c.pools() {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := p.db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("ping %s: %w", p.role, err)
		}
	}
	return nil
}

// Close releases both pools.
func (c *Connections) Close() error {
	var errs []error
	for _, p := range c.pools() {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.role, err))
		}
	}
	return errors.Join(errs...)
}

type pool struct {
	role string
	db   *bun.DB
}

func (c *Connections) pools() []pool {
	pools := []pool{{role: "writer", db: c.Primary}}
	if c.Replica != c.Primary {
		pools = append(pools, pool{role: "reader", db: c.Replica})
	}
	return pools
}

const pingTimeout = 5 * time.Second

type driver struct {
	dialect func() schema.Dialect
	sqlDB   func(dsn string) (*sql.DB, error)
}

var drivers = map[string]driver{
	"postgres": {
		dialect: func() schema.Dialect { return pgdialect.New() },
		sqlDB: func(dsn string) (*sql.DB, error) {
			return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
		},
	},
	"mysql": {
		dialect: func() schema.Dialect { return mysqldialect.New() },
		sqlDB:   func(dsn string) (*sql.DB, error) { return sql.Open("mysql", dsn) },
	},
	"sqlite": {
		dialect: func() schema.Dialect { return sqlitedialect.New() },
		sqlDB:   func(dsn string) (*sql.DB, error) { return sql.Open(sqliteshim.ShimName, sqliteDSN(dsn)) },
	},
}

// sqliteBusyTimeout bounds how long a connection waits on a locked database
// before reporting SQLITE_BUSY.
const sqliteBusyTimeout = 5 * time.Second

// sqliteDSN makes concurrent writers queue instead of failing: every
// connection gets a busy timeout, and transactions take the write lock at
// BEGIN so the busy handler covers the whole write. Values already present in
// dsn are kept.
func sqliteDSN(dsn string) string {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsn
	}

	extra := url.Values{}
	hasTimeout := false
	for _, p := range query["_pragma"] {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(p)), "busy_timeout") {
			hasTimeout = true
		}
	}
	if !hasTimeout {
		extra.Set("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeout.Milliseconds()))
	}
	if query.Get("_txlock") == "" {
		extra.Set("_txlock", "immediate")
	}
	if len(extra) == 0 {
		return dsn
	}
	if rawQuery == "" {
		return base + "?" + extra.Encode()
	}
	return dsn + "&" + extra.Encode()
}

func (d driver) open(cfg config.Database, dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}
	sqldb, err := d.sqlDB(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	return bun.NewDB(sqldb, d.dialect()), nil
}
