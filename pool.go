package dbkit

import (
	"github.com/TechXTT/dbkit/pkg/adapter"
)

// Pool wraps an adapter that manages its own set of connections. It starts
// open and never connects lazily. Close ends the pool for good; later calls
// fail with ErrPoolClosed. Concurrency safety of queries is up to the
// adapter.
type Pool struct {
	*executor
}

var _ Core = (*Pool)(nil)

// NewPool returns an open Pool over a.
func NewPool(a adapter.Adapter, opts ...Option) *Pool {
	return &Pool{executor: newExecutor(a, true, newOptions(opts), "pool")}
}
