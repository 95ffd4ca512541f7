package adapter

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ReturnsRows reports whether a statement produces a result set and must go
// through QueryContext rather than ExecContext. It looks at the first keyword
// after any comments and opening parentheses, and for a RETURNING keyword
// outside literals, quoted identifiers and comments.
func ReturnsRows(query string) bool {
	lx := lexer{src: query}
	first := true
	for {
		word, ok := lx.nextWord()
		if !ok {
			return false
		}
		w := strings.ToUpper(word)
		if first {
			switch w {
			case "SELECT", "WITH", "VALUES", "SHOW", "EXPLAIN", "TABLE", "PRAGMA":
				return true
			}
			first = false
		}
		if w == "RETURNING" {
			return true
		}
	}
}

// lexer walks SQL text, yielding bare words and skipping comments, string
// literals, quoted identifiers and dollar-quoted bodies.
type lexer struct {
	src string
	pos int
}

func (lx *lexer) nextWord() (string, bool) {
	s := lx.src
	for lx.pos < len(s) {
		c := s[lx.pos]
		switch {
		case c == '-' && strings.HasPrefix(s[lx.pos:], "--"):
			lx.skipUntil("\n")
		case c == '/' && strings.HasPrefix(s[lx.pos:], "/*"):
			lx.pos += 2
			lx.skipUntil("*/")
		case c == '\'' || c == '"' || c == '`':
			lx.skipQuoted(c)
		case c == '[':
			lx.pos++
			lx.skipUntil("]")
		case c == '$':
			lx.skipDollar()
		case isWordByte(c):
			start := lx.pos
			for lx.pos < len(s) && isWordByte(s[lx.pos]) {
				lx.pos++
			}
			return s[start:lx.pos], true
		default:
			lx.pos++
		}
	}
	return "", false
}

// skipUntil moves past the next occurrence of end, or to the end of input.
func (lx *lexer) skipUntil(end string) {
	if i := strings.Index(lx.src[lx.pos:], end); i >= 0 {
		lx.pos += i + len(end)
		return
	}
	lx.pos = len(lx.src)
}

// skipQuoted moves past a quoted run. A doubled quote is an escaped quote and
// is consumed by the loop as two adjacent runs.
func (lx *lexer) skipQuoted(q byte) {
	lx.pos++
	if i := strings.IndexByte(lx.src[lx.pos:], q); i >= 0 {
		lx.pos += i + 1
		return
	}
	lx.pos = len(lx.src)
}

// skipDollar handles $1 parameters and $tag$...$tag$ bodies.
func (lx *lexer) skipDollar() {
	s := lx.src
	j := lx.pos + 1
	for j < len(s) && isWordByte(s[j]) && !(j == lx.pos+1 && s[j] >= '0' && s[j] <= '9') {
		j++
	}
	if j < len(s) && s[j] == '$' {
		tag := s[lx.pos : j+1]
		lx.pos = j + 1
		lx.skipUntil(tag)
		return
	}
	// positional parameter or a lone $
	lx.pos++
	for lx.pos < len(s) && s[lx.pos] >= '0' && s[lx.pos] <= '9' {
		lx.pos++
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

// binaryTypes are database type names whose []byte values are kept as is.
var binaryTypes = map[string]bool{
	"BYTEA":      true,
	"BLOB":       true,
	"BINARY":     true,
	"VARBINARY":  true,
	"TINYBLOB":   true,
	"MEDIUMBLOB": true,
	"LONGBLOB":   true,
}

// textual reports whether []byte values of a column with this database type
// name should be returned as strings. Unknown (empty) type names keep bytes.
func textual(dbType string) bool {
	if i := strings.IndexByte(dbType, '('); i >= 0 {
		dbType = dbType[:i]
	}
	dbType = strings.ToUpper(strings.TrimSpace(dbType))
	return dbType != "" && !binaryTypes[dbType]
}

type sqlRunner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func sqlQuery(ctx context.Context, r sqlRunner, query string, params []any) (res *Result, err error) {
	if !ReturnsRows(query) {
		out, err := r.ExecContext(ctx, query, params...)
		if err != nil {
			return nil, err
		}
		n, err := out.RowsAffected()
		if err != nil {
			return nil, err
		}
		return &Result{Rows: []Row{}, RowCount: n}, nil
	}

	rows, err := r.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, len(cts))
	text := make([]bool, len(cts))
	for i, ct := range cts {
		fields[i] = Field{Name: ct.Name(), DataType: ct.DatabaseTypeName()}
		text[i] = textual(fields[i].DataType)
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			if b, ok := vals[i].([]byte); ok && text[i] {
				vals[i] = string(b)
			}
			row[f.Name] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Result{Rows: out, RowCount: int64(len(out)), Fields: fields}, nil
}

// SQLPool adapts a *sql.DB. database/sql pools connections itself, so
// Connect only pings and End closes the whole DB.
type SQLPool struct {
	db *sql.DB
}

func NewSQLPool(db *sql.DB) *SQLPool {
	return &SQLPool{db: db}
}

func (a *SQLPool) Connect(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *SQLPool) End(context.Context) error {
	return a.db.Close()
}

func (a *SQLPool) Query(ctx context.Context, query string, params ...any) (*Result, error) {
	return sqlQuery(ctx, a.db, query, params)
}

// SQLConn pins one *sql.Conn from db. End releases that connection; the
// *sql.DB itself stays with the caller, so the adapter can connect again.
//
// An SQLConn built with NewSQLConnOpener owns its handle instead: Connect
// opens a fresh *sql.DB and End closes it along with the connection.
type SQLConn struct {
	db   *sql.DB
	open func() (*sql.DB, error)
	conn *sql.Conn
}

func NewSQLConn(db *sql.DB) *SQLConn {
	return &SQLConn{db: db}
}

// NewSQLConnOpener returns an SQLConn that calls open on every Connect and
// closes the resulting *sql.DB on End.
func NewSQLConnOpener(open func() (*sql.DB, error)) *SQLConn {
	return &SQLConn{open: open}
}

func (a *SQLConn) Connect(ctx context.Context) error {
	if a.open != nil {
		db, err := a.open()
		if err != nil {
			return err
		}
		a.db = db
	}
	conn, err := a.db.Conn(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		_ = a.releaseDB()
		return err
	}
	a.conn = conn
	return nil
}

func (a *SQLConn) End(context.Context) error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return errors.Join(err, a.releaseDB())
}

// releaseDB closes the handle when the adapter owns it.
func (a *SQLConn) releaseDB() error {
	if a.open == nil || a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *SQLConn) Query(ctx context.Context, query string, params ...any) (*Result, error) {
	if a.conn == nil {
		return nil, ErrNotConnected
	}
	return sqlQuery(ctx, a.conn, query, params)
}
