package plugin

import (
	"context"

	"go.uber.org/zap"
)

// Logging writes one entry per statement: debug on success, warn on failure.
// Parameters are never logged.
type Logging struct {
	logger *zap.Logger
}

func NewLogging(logger *zap.Logger) *Logging {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging{logger: logger.With(zap.String("component", "dbkit"))}
}

func (l *Logging) Before(ctx context.Context, _ *Event) context.Context { return ctx }

func (l *Logging) After(_ context.Context, e *Event) {
	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("op", e.Op),
		zap.Duration("duration", e.Duration),
	}
	if e.Table != "" {
		fields = append(fields, zap.String("table", e.Table))
	}
	if e.SQL != "" {
		fields = append(fields, zap.String("sql", e.SQL), zap.Int("params", len(e.Params)))
	}
	if e.Err != nil {
		l.logger.Warn("statement failed", append(fields, zap.Error(e.Err))...)
		return
	}
	l.logger.Debug("statement executed", append(fields, zap.Int64("row_count", e.RowCount))...)
}
