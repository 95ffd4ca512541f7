package dbkit

import (
	"context"
	"errors"

	"github.com/TechXTT/dbkit/pkg/adapter"
)

// Connection wraps one exclusive database connection. It starts closed and
// opens on first use. A Connection is meant for sequential use by a single
// goroutine; concurrent calls are safe for the open/close transitions only.
type Connection struct {
	*executor
}

var _ Core = (*Connection)(nil)

// NewConnection returns a closed Connection over a.
func NewConnection(a adapter.Adapter, opts ...Option) *Connection {
	return &Connection{executor: newExecutor(a, false, newOptions(opts), "connection")}
}

// OpenWith opens the connection, runs fn and closes the connection again on
// every exit path, including errors and panics. A close failure is joined
// with fn's error.
func (c *Connection) OpenWith(ctx context.Context, fn func(ctx context.Context, cn Core) error) (err error) {
	if err := c.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx, c)
}
