package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var (
	typeMu  sync.Mutex
	typeMap = pgtype.NewMap()
)

func pgTypeName(oid uint32) string {
	typeMu.Lock()
	defer typeMu.Unlock()
	if t, ok := typeMap.TypeForOID(oid); ok {
		return t.Name
	}
	return ""
}

func pgxQuery(ctx context.Context, q pgxQueryer, sql string, params []any) (*Result, error) {
	rows, err := q.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	fields := make([]Field, len(fds))
	for i, fd := range fds {
		fields[i] = Field{Name: fd.Name, DataType: pgTypeName(fd.DataTypeOID)}
	}

	out := []Row{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[f.Name] = vals[i]
		}
		out = append(out, row)
	}
	// the command tag is only populated once rows are closed
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Result{Rows: out, RowCount: rows.CommandTag().RowsAffected(), Fields: fields}, nil
}

// PgxConn is a single exclusive pgx connection. It is not safe for
// concurrent use.
type PgxConn struct {
	config *pgx.ConnConfig
	conn   *pgx.Conn
}

// NewPgxConn parses connString without dialing.
func NewPgxConn(connString string) (*PgxConn, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	return &PgxConn{config: cfg}, nil
}

func (a *PgxConn) Connect(ctx context.Context) error {
	conn, err := pgx.ConnectConfig(ctx, a.config)
	if err != nil {
		return err
	}
	a.conn = conn
	return nil
}

func (a *PgxConn) End(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close(ctx)
	a.conn = nil
	return err
}

func (a *PgxConn) Query(ctx context.Context, sql string, params ...any) (*Result, error) {
	if a.conn == nil {
		return nil, ErrNotConnected
	}
	return pgxQuery(ctx, a.conn, sql, params)
}

// PoolOptions are handed to pgxpool untouched. Zero values keep pgxpool's
// defaults.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func (o PoolOptions) apply(cfg *pgxpool.Config) {
	if o.MaxConns > 0 {
		cfg.MaxConns = o.MaxConns
	}
	if o.MinConns > 0 {
		cfg.MinConns = o.MinConns
	}
	if o.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = o.MaxConnLifetime
	}
	if o.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = o.MaxConnIdleTime
	}
	if o.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = o.HealthCheckPeriod
	}
}

// PgxPool is a pgxpool-backed adapter. The pool manages its own member
// connections; Connect only pings.
type PgxPool struct {
	pool *pgxpool.Pool
}

// NewPgxPool creates the pool. pgxpool dials lazily unless MinConns is set.
func NewPgxPool(ctx context.Context, connString string, opts PoolOptions) (*PgxPool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	opts.apply(cfg)
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &PgxPool{pool: pool}, nil
}

// NewPgxPoolFrom wraps an existing pool.
func NewPgxPoolFrom(pool *pgxpool.Pool) *PgxPool {
	return &PgxPool{pool: pool}
}

func (a *PgxPool) Connect(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *PgxPool) End(context.Context) error {
	a.pool.Close()
	return nil
}

func (a *PgxPool) Query(ctx context.Context, sql string, params ...any) (*Result, error) {
	return pgxQuery(ctx, a.pool, sql, params)
}
