// Package plugin defines hooks fired around every statement and lifecycle
// transition, with logging, metrics and tracing implementations.
package plugin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operation names carried by Event.Op.
const (
	OpConnect         = "connect"
	OpEnd             = "end"
	OpQuery           = "query"
	OpQueryFirst      = "query_first"
	OpExecuteScalar   = "execute_scalar"
	OpExecute         = "execute"
	OpInsert          = "insert"
	OpInsertReturning = "insert_returning"
	OpUpdate          = "update"
	OpDelete          = "delete"
)

// Event describes one adapter call. RowCount, Err and Duration are filled in
// before After runs.
type Event struct {
	ID       string
	Op       string
	Table    string
	SQL      string
	Params   []any
	RowCount int64
	Err      error
	Start    time.Time
	Duration time.Duration
}

// NewEvent stamps a new event with a random ID and the current time.
func NewEvent(op, table, sql string, params []any) *Event {
	return &Event{
		ID:     uuid.NewString(),
		Op:     op,
		Table:  table,
		SQL:    sql,
		Params: params,
		Start:  time.Now(),
	}
}

// Finish records the outcome of the call.
func (e *Event) Finish(rowCount int64, err error) {
	e.RowCount = rowCount
	e.Err = err
	e.Duration = time.Since(e.Start)
}

// Hooks observe adapter calls. Before may return a derived context that is
// used for the call and handed to After.
type Hooks interface {
	Before(ctx context.Context, e *Event) context.Context
	After(ctx context.Context, e *Event)
}

// Chain runs hooks in order for Before and in reverse order for After.
type Chain []Hooks

func (c Chain) Before(ctx context.Context, e *Event) context.Context {
	for _, h := range c {
		ctx = h.Before(ctx, e)
	}
	return ctx
}

func (c Chain) After(ctx context.Context, e *Event) {
	for i := len(c) - 1; i >= 0; i-- {
		c[i].After(ctx, e)
	}
}
