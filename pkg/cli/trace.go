package cli

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// spanLogger exports finished spans to the logger.
type spanLogger struct {
	logger *zap.Logger
}

func (s spanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, sp := range spans {
		fields := []zap.Field{
			zap.String("span", sp.Name()),
			zap.String("trace_id", sp.SpanContext().TraceID().String()),
			zap.Duration("duration", sp.EndTime().Sub(sp.StartTime())),
			zap.String("status", sp.Status().Code.String()),
		}
		for _, kv := range sp.Attributes() {
			fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
		}
		s.logger.Info("span", fields...)
	}
	return nil
}

func (spanLogger) Shutdown(context.Context) error { return nil }

func newTracerProvider(logger *zap.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(spanLogger{logger: logger.With(zap.String("component", "trace"))}),
	)
}
