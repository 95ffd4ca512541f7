package dbkit

import (
	"database/sql"
	"errors"
)

var (
	// ErrPoolClosed is returned by every operation on a pool after Close.
	// Pools cannot be reopened.
	ErrPoolClosed = errors.New("dbkit: cannot use a pool after calling Close on the pool")

	// ErrNoRows is returned by InsertReturning when the database returned no
	// row. It is sql.ErrNoRows, so either can be matched with errors.Is.
	ErrNoRows = sql.ErrNoRows
)

// ExecError wraps an error reported by the adapter. The adapter error is
// kept as is and reachable through errors.Is / errors.As.
type ExecError struct {
	Op  string
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return "dbkit: " + e.Op + ": " + e.Err.Error()
}

func (e *ExecError) Unwrap() error { return e.Err }
