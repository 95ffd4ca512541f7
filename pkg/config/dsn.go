package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds connection settings. dbkit never interprets them beyond
// building a connection string; pool settings go to the adapter untouched.
type Config struct {
	// DSN is a full connection string. It may be written as env("NAME") to
	// read it from the environment.
	DSN    string `yaml:"url"`
	Driver string `yaml:"driver"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	Pool    PoolConfig    `yaml:"pool"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PoolConfig is passed to the pool adapter as is.
type PoolConfig struct {
	MaxConns          int32         `yaml:"max_conns"`
	MinConns          int32         `yaml:"min_conns"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Driver:  "pgx",
		Host:    "localhost",
		Port:    5432,
		SSLMode: "disable",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Namespace: "dbkit",
		},
	}
}

var envRef = regexp.MustCompile(`^\s*env\("([^"]+)"\)\s*$`)

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then a .env file in the working directory, then the
// environment. The result is not validated; call Validate once any
// command-line overrides have been applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// a missing .env is fine
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if m := envRef.FindStringSubmatch(cfg.DSN); m != nil {
		cfg.DSN = os.Getenv(m[1])
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	str(&c.DSN, "DBKIT_DSN", "DATABASE_URL")
	str(&c.Driver, "DBKIT_DRIVER")
	str(&c.Host, "PGHOST")
	str(&c.User, "PGUSER", "DB_USER")
	str(&c.Password, "PGPASSWORD", "DB_PASS")
	str(&c.Database, "PGDATABASE", "DB_NAME")
	str(&c.SSLMode, "PGSSLMODE")
	str(&c.Log.Level, "DBKIT_LOG_LEVEL")

	if v := os.Getenv("PGPORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PGPORT: %w", err)
		}
		c.Port = port
	}
	return nil
}

// Validate reports settings that cannot produce a connection string.
func (c *Config) Validate() error {
	switch c.Driver {
	case "pgx", "postgres":
		if c.DSN == "" && c.Database == "" {
			return errors.New("config: either url or database must be set")
		}
	case "sqlite":
		if c.DSN == "" {
			return errors.New("config: sqlite needs url")
		}
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	return nil
}

// ConnString returns DSN when set, otherwise a postgres URL built from the
// individual fields.
func (c *Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(strings.TrimSpace(c.SSLMode))
	}
	return u.String()
}
