package runtime

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// database/sql driver names registered by this package.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NormalizeDSN disables SSL on postgres URLs that do not choose a mode.
func NormalizeDSN(dsn string) string {
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	if isURL && !strings.Contains(dsn, "sslmode=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn = dsn + sep + "sslmode=disable"
	}
	return dsn
}

// Open returns a *sql.DB for driver. Postgres DSNs are normalised first.
// No connection is made until first use.
func Open(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN is empty")
	}
	switch driver {
	case DriverPgx, DriverPostgres:
		dsn = NormalizeDSN(dsn)
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}
