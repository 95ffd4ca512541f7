// Package dbkit runs plain SQL and generated CRUD statements against one
// exclusive connection (Connection) or a shared pool (Pool).
//
// Both variants expose the same Core operations and open themselves on first
// use. Statements use positional $n placeholders; values are always bound as
// parameters while table and column names are written verbatim.
package dbkit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/TechXTT/dbkit/internal/core"
	"github.com/TechXTT/dbkit/pkg/adapter"
	"github.com/TechXTT/dbkit/pkg/plugin"
	"github.com/TechXTT/dbkit/pkg/statement"
)

// State of a Connection or Pool.
type State = core.State

const (
	Closed = core.Closed
	Open   = core.Open
	Ended  = core.Ended
)

// Core is the operation set shared by Connection and Pool. Every data
// operation opens the connection first when needed.
type Core interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	State() State
	IsOpen() bool

	Query(ctx context.Context, sql string, params ...any) ([]adapter.Row, error)
	QueryFirst(ctx context.Context, sql string, params ...any) (adapter.Row, bool, error)
	ExecuteScalar(ctx context.Context, sql string, params ...any) (any, bool, error)
	Execute(ctx context.Context, sql string, params ...any) (int64, error)

	Insert(ctx context.Context, table string, obj any, exclude ...string) (int64, error)
	InsertReturning(ctx context.Context, table string, obj any, returning string, exclude ...string) (any, error)
	Update(ctx context.Context, table string, obj any, primaryKey string, exclude ...string) (int64, error)
	Delete(ctx context.Context, table, primaryKey string, value any) (int64, error)
}

// executor implements Core over an adapter. Connection and Pool embed it and
// differ only in their lifecycle.
type executor struct {
	adapter      adapter.Adapter
	life         *core.Lifecycle
	hooks        plugin.Chain
	logger       *zap.Logger
	nullSentinel bool
}

func newExecutor(a adapter.Adapter, terminal bool, o options, component string) *executor {
	return &executor{
		adapter:      a,
		life:         core.NewLifecycle(terminal),
		hooks:        o.hooks,
		logger:       o.logger.With(zap.String("component", component)),
		nullSentinel: o.nullSentinel,
	}
}

// Adapter returns the underlying database adapter.
func (x *executor) Adapter() adapter.Adapter { return x.adapter }

func (x *executor) State() State { return x.life.State() }

func (x *executor) IsOpen() bool { return x.life.State() == Open }

// Open connects when closed. Calling it on an open connection does nothing.
func (x *executor) Open(ctx context.Context) error {
	ran, err := x.life.Open(ctx, func(ctx context.Context) error {
		return x.observe(ctx, plugin.OpConnect, x.adapter.Connect)
	})
	if errors.Is(err, core.ErrEnded) {
		return ErrPoolClosed
	}
	if err != nil {
		return &ExecError{Op: plugin.OpConnect, Err: err}
	}
	if ran {
		x.logger.Debug("connection opened")
	}
	return nil
}

// Close ends the connection when open. Calling it again does nothing.
func (x *executor) Close(ctx context.Context) error {
	ran, err := x.life.Close(ctx, func(ctx context.Context) error {
		return x.observe(ctx, plugin.OpEnd, x.adapter.End)
	})
	if err != nil {
		return &ExecError{Op: plugin.OpEnd, Err: err}
	}
	if ran {
		x.logger.Debug("connection closed", zap.Stringer("state", x.life.State()))
	}
	return nil
}

func (x *executor) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	e := plugin.NewEvent(op, "", "", nil)
	ctx = x.hooks.Before(ctx, e)
	err := fn(ctx)
	e.Finish(0, err)
	x.hooks.After(ctx, e)
	return err
}

// run opens the connection if needed and sends st to the adapter.
func (x *executor) run(ctx context.Context, op, table string, st statement.Statement) (*adapter.Result, error) {
	if err := x.Open(ctx); err != nil {
		return nil, err
	}

	e := plugin.NewEvent(op, table, st.SQL, st.Params)
	ctx = x.hooks.Before(ctx, e)
	res, err := x.adapter.Query(ctx, st.SQL, st.Params...)
	var n int64
	if res != nil {
		n = res.RowCount
	}
	e.Finish(n, err)
	x.hooks.After(ctx, e)

	if err != nil {
		return nil, &ExecError{Op: op, SQL: st.SQL, Err: err}
	}
	if res == nil {
		res = &adapter.Result{}
	}
	return res, nil
}

// values binds the field values, as the "NULL" sentinel when enabled.
func (x *executor) values(f *statement.Fields) []any {
	if x.nullSentinel {
		return statement.ExtractValues(f)
	}
	return statement.Values(f)
}

// Query returns all rows, or an empty slice when there are none.
func (x *executor) Query(ctx context.Context, sql string, params ...any) ([]adapter.Row, error) {
	res, err := x.run(ctx, plugin.OpQuery, "", statement.Statement{SQL: sql, Params: params})
	if err != nil {
		return nil, err
	}
	if res.Rows == nil {
		return []adapter.Row{}, nil
	}
	return res.Rows, nil
}

// QueryFirst returns the first row. ok is false when nothing matched.
func (x *executor) QueryFirst(ctx context.Context, sql string, params ...any) (adapter.Row, bool, error) {
	res, err := x.run(ctx, plugin.OpQueryFirst, "", statement.Statement{SQL: sql, Params: params})
	if err != nil {
		return nil, false, err
	}
	row, ok := res.First()
	return row, ok, nil
}

// ExecuteScalar returns the first column of the first row. The column is
// picked by position in the result's field list, not by name.
func (x *executor) ExecuteScalar(ctx context.Context, sql string, params ...any) (any, bool, error) {
	res, err := x.run(ctx, plugin.OpExecuteScalar, "", statement.Statement{SQL: sql, Params: params})
	if err != nil {
		return nil, false, err
	}
	v, ok := res.Scalar()
	return v, ok, nil
}

// Execute returns the number of affected rows.
func (x *executor) Execute(ctx context.Context, sql string, params ...any) (int64, error) {
	res, err := x.run(ctx, plugin.OpExecute, "", statement.Statement{SQL: sql, Params: params})
	if err != nil {
		return 0, err
	}
	return res.RowCount, nil
}

// Insert writes obj into table without the excluded columns. obj may be a
// *statement.Fields, a map[string]any or a struct.
func (x *executor) Insert(ctx context.Context, table string, obj any, exclude ...string) (int64, error) {
	f, err := statement.FieldsOf(obj)
	if err != nil {
		return 0, err
	}
	set := f.Without(exclude...)
	st := statement.BuildInsert(table, set)
	st.Params = x.values(set)
	res, err := x.run(ctx, plugin.OpInsert, table, st)
	if err != nil {
		return 0, err
	}
	return res.RowCount, nil
}

// InsertReturning inserts obj and returns the value of the returning column
// from the inserted row.
func (x *executor) InsertReturning(ctx context.Context, table string, obj any, returning string, exclude ...string) (any, error) {
	f, err := statement.FieldsOf(obj)
	if err != nil {
		return nil, err
	}
	set := f.Without(exclude...)
	st := statement.BuildInsertReturning(table, set, returning)
	st.Params = x.values(set)
	res, err := x.run(ctx, plugin.OpInsertReturning, table, st)
	if err != nil {
		return nil, err
	}
	v, ok := res.Scalar()
	if !ok {
		return nil, &ExecError{Op: plugin.OpInsertReturning, SQL: st.SQL, Err: ErrNoRows}
	}
	return v, nil
}

// Update sets the columns of obj on the rows whose primaryKey equals
// obj[primaryKey]. Exclusions only shrink the SET clause; the key value is
// read from the full object. An empty primaryKey means "id".
func (x *executor) Update(ctx context.Context, table string, obj any, primaryKey string, exclude ...string) (int64, error) {
	f, err := statement.FieldsOf(obj)
	if err != nil {
		return 0, err
	}
	if primaryKey == "" {
		primaryKey = statement.DefaultPrimaryKey
	}
	pkValue, _ := f.Get(primaryKey)
	set := f.Without(exclude...)
	st := statement.BuildUpdate(table, set, primaryKey, pkValue)
	st.Params = append([]any{pkValue}, x.values(set)...)
	res, err := x.run(ctx, plugin.OpUpdate, table, st)
	if err != nil {
		return 0, err
	}
	return res.RowCount, nil
}

// Delete removes the rows whose primaryKey equals value. An empty primaryKey
// means "id".
func (x *executor) Delete(ctx context.Context, table, primaryKey string, value any) (int64, error) {
	res, err := x.run(ctx, plugin.OpDelete, table, statement.BuildDelete(table, primaryKey, value))
	if err != nil {
		return 0, err
	}
	return res.RowCount, nil
}
