package plugin

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts statements, their latency and affected rows.
type Metrics struct {
	statementsTotal   *prometheus.CounterVec
	statementDuration *prometheus.HistogramVec
	rowsAffected      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		statementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statements_total",
				Help:      "Total number of statements sent to the database",
			},
			[]string{"op", "status"},
		),
		statementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "statement_duration_seconds",
				Help:      "Statement duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
		rowsAffected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_affected_total",
				Help:      "Rows affected or returned by statements",
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) Before(ctx context.Context, _ *Event) context.Context { return ctx }

func (m *Metrics) After(_ context.Context, e *Event) {
	status := "ok"
	if e.Err != nil {
		status = "error"
	}
	m.statementsTotal.WithLabelValues(e.Op, status).Inc()
	m.statementDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
	if e.Err == nil && e.RowCount > 0 {
		m.rowsAffected.WithLabelValues(e.Op).Add(float64(e.RowCount))
	}
}
