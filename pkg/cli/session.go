package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TechXTT/dbkit"
	"github.com/TechXTT/dbkit/pkg/config"
	"github.com/TechXTT/dbkit/pkg/plugin"
)

// globalFlags are the persistent flags shared by every data command.
type globalFlags struct {
	configPath string
	dsn        string
	driver     string
	logLevel   string
	metrics    bool
	trace      bool
}

func (g *globalFlags) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&g.dsn, "dsn", "", "connection string (overrides config)")
	f.StringVar(&g.driver, "driver", "", "driver: pgx, postgres or sqlite")
	f.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.BoolVar(&g.metrics, "metrics", false, "log statement metrics on exit")
	f.BoolVar(&g.trace, "trace", false, "log a span per statement")
}

func (g *globalFlags) config() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dsn != "" {
		cfg.DSN = g.dsn
	}
	if g.driver != "" {
		cfg.Driver = g.driver
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.metrics {
		cfg.Metrics.Enabled = true
	}
	return cfg, nil
}

// run opens a connection, hands it to fn and prints fn's result as JSON.
// The connection is closed before anything is printed.
func (g *globalFlags) run(cmd *cobra.Command, fn func(ctx context.Context, cn dbkit.Core) (any, error)) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := []dbkit.Option{
		dbkit.WithLogger(logger),
		dbkit.WithHooks(plugin.NewLogging(logger)),
	}
	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		opts = append(opts, dbkit.WithHooks(plugin.NewMetrics(cfg.Metrics.Namespace, reg)))
	}
	if g.trace {
		tp := newTracerProvider(logger)
		defer func() { _ = tp.Shutdown(context.WithoutCancel(cmd.Context())) }()
		opts = append(opts, dbkit.WithHooks(plugin.NewTracing(tp, cfg.Driver)))
	}

	conn, err := dbkit.Connect(cfg, opts...)
	if err != nil {
		return err
	}

	var out any
	err = conn.OpenWith(cmd.Context(), func(ctx context.Context, cn dbkit.Core) error {
		var err error
		out, err = fn(ctx, cn)
		return err
	})
	if reg != nil {
		logMetrics(logger, reg)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func logMetrics(logger *zap.Logger, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logger.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		logger.Info("metric", zap.String("name", mf.GetName()), zap.Float64("value", total))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseParams turns command line arguments into statement parameters.
// Integers, floats, booleans and null are recognised; a JSON string literal
// forces a string; anything else is passed as text.
func parseParams(args []string) []any {
	params := make([]any, len(args))
	for i, a := range args {
		params[i] = parseParam(a)
	}
	return params
}

func parseParam(s string) any {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal([]byte(s), &str); err == nil {
			return str
		}
	}
	return s
}
