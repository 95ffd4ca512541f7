package dbkit

import (
	"go.uber.org/zap"

	"github.com/TechXTT/dbkit/pkg/plugin"
)

// Option configures a Connection or Pool.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	hooks        plugin.Chain
	nullSentinel bool
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for lifecycle transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHooks appends statement hooks.
func WithHooks(hooks ...plugin.Hooks) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithLegacyNullSentinel makes Insert, InsertReturning and Update bind nil
// values as the string "NULL" instead of SQL NULL.
func WithLegacyNullSentinel() Option {
	return func(o *options) {
		o.nullSentinel = true
	}
}
