// File: internal/core/connection.go
package core

import (
	"context"
	"errors"
	"sync"
)

// ErrEnded is returned by a terminal lifecycle once it has been closed.
var ErrEnded = errors.New("connection has been ended")

// State of a connection or pool.
type State int32

const (
	Closed State = iota
	Open
	Ended
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Lifecycle serialises open/close transitions. The lock is held while the
// connect or end callback runs, so concurrent callers never connect twice.
type Lifecycle struct {
	mu       sync.Mutex
	state    State
	terminal bool
}

// NewLifecycle returns a lifecycle starting Closed. A terminal lifecycle
// starts Open and moves to Ended on Close instead of back to Closed.
func NewLifecycle(terminal bool) *Lifecycle {
	l := &Lifecycle{terminal: terminal}
	if terminal {
		l.state = Open
	}
	return l
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Open calls connect when Closed. It reports whether connect ran.
func (l *Lifecycle) Open(ctx context.Context, connect func(context.Context) error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case Open:
		return false, nil
	case Ended:
		return false, ErrEnded
	}
	if err := connect(ctx); err != nil {
		return true, err
	}
	l.state = Open
	return true, nil
}

// Close calls end when Open. It reports whether end ran. A failed end
// leaves the state Open.
func (l *Lifecycle) Close(ctx context.Context, end func(context.Context) error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Open {
		return false, nil
	}
	if err := end(ctx); err != nil {
		return true, err
	}
	if l.terminal {
		l.state = Ended
	} else {
		l.state = Closed
	}
	return true, nil
}
