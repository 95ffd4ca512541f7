package plugin

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/TechXTT/dbkit"

// Tracing opens one client span per adapter call.
type Tracing struct {
	tracer trace.Tracer
	system string
}

// NewTracing uses tp, or the global provider when tp is nil. system is the
// db.system attribute value, e.g. "postgresql".
func NewTracing(tp trace.TracerProvider, system string) *Tracing {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{tracer: tp.Tracer(instrumentationName), system: system}
}

func (t *Tracing) Before(ctx context.Context, e *Event) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", t.system),
		attribute.String("db.operation", e.Op),
	}
	if e.SQL != "" {
		attrs = append(attrs, attribute.String("db.statement", e.SQL))
	}
	if e.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", e.Table))
	}
	ctx, _ = t.tracer.Start(ctx, "dbkit."+e.Op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx
}

func (t *Tracing) After(ctx context.Context, e *Event) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", e.RowCount))
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}
