// Package adapter defines the database client capability dbkit drives and
// ships implementations over pgx, pgxpool and database/sql.
package adapter

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by Query on a single-connection adapter that
// has not been connected yet.
var ErrNotConnected = errors.New("adapter: not connected")

// Adapter executes statements and owns the underlying connection(s).
type Adapter interface {
	Connect(ctx context.Context) error
	End(ctx context.Context) error
	Query(ctx context.Context, sql string, params ...any) (*Result, error)
}

// Row maps column names to values.
type Row map[string]any

// Field describes one result column. DataType is empty when the driver does
// not report it.
type Field struct {
	Name     string
	DataType string
}

// Result of a statement. RowCount is the number of affected rows for
// INSERT/UPDATE/DELETE and the number of returned rows for queries.
type Result struct {
	Rows     []Row
	RowCount int64
	Fields   []Field
}

// First returns the first row, if any.
func (r *Result) First() (Row, bool) {
	if r == nil || len(r.Rows) == 0 {
		return nil, false
	}
	return r.Rows[0], true
}

// Scalar returns the first column of the first row, picking the column by
// field order rather than by name.
func (r *Result) Scalar() (any, bool) {
	row, ok := r.First()
	if !ok || len(r.Fields) == 0 {
		return nil, false
	}
	v, ok := row[r.Fields[0].Name]
	return v, ok
}
