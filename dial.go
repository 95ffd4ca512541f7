package dbkit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TechXTT/dbkit/pkg/adapter"
	"github.com/TechXTT/dbkit/pkg/config"
	"github.com/TechXTT/dbkit/pkg/runtime"
)

func poolOptions(p config.PoolConfig) adapter.PoolOptions {
	return adapter.PoolOptions{
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
	}
}

// Connect builds a closed Connection for cfg. The pgx driver uses a native
// pgx connection; the others open a database/sql handle on every Open and
// close it again on Close, so nothing outlives the connection.
func Connect(cfg *config.Config, opts ...Option) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dsn := cfg.ConnString()
	if cfg.Driver == runtime.DriverPgx {
		a, err := adapter.NewPgxConn(runtime.NormalizeDSN(dsn))
		if err != nil {
			return nil, err
		}
		return NewConnection(a, opts...), nil
	}

	driver := cfg.Driver
	open := func() (*sql.DB, error) {
		db, err := runtime.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return NewConnection(adapter.NewSQLConnOpener(open), opts...), nil
}

// NewPoolFromConfig builds an open Pool for cfg. Pool sizing is handed to the
// driver as configured.
func NewPoolFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dsn := cfg.ConnString()
	if cfg.Driver == runtime.DriverPgx {
		a, err := adapter.NewPgxPool(ctx, runtime.NormalizeDSN(dsn), poolOptions(cfg.Pool))
		if err != nil {
			return nil, fmt.Errorf("pgx pool: %w", err)
		}
		return NewPool(a, opts...), nil
	}

	db, err := runtime.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Pool.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.Pool.MaxConns))
	}
	if cfg.Pool.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.Pool.MaxConnLifetime)
	}
	if cfg.Pool.MaxConnIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.Pool.MaxConnIdleTime)
	}
	return NewPool(adapter.NewSQLPool(db), opts...), nil
}
