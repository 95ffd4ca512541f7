// Package statement turns ordered field-maps into parameterized SQL.
//
// Placeholders are positional and 1-based ($1, $2, ...). Table and column
// names are written verbatim and must come from trusted code; only values are
// bound as parameters.
package statement

import (
	"strconv"
	"strings"
)

const (
	// DefaultPrimaryKey is used when no primary key column is named.
	DefaultPrimaryKey = "id"

	// NullSentinel replaces nil values in ExtractValues.
	NullSentinel = "NULL"
)

// Statement is SQL text plus its ordered parameters.
type Statement struct {
	SQL    string
	Params []any
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// InsertSQL renders INSERT INTO table(c1, c2) VALUES($1, $2).
func InsertSQL(table string, f *Fields) string {
	keys := f.Keys()
	ph := make([]string, len(keys))
	for i := range keys {
		ph[i] = placeholder(i + 1)
	}
	return "INSERT INTO " + table + "(" + strings.Join(keys, ", ") + ") VALUES(" + strings.Join(ph, ", ") + ")"
}

// BuildInsert returns the insert statement for f with its values bound in order.
func BuildInsert(table string, f *Fields) Statement {
	return Statement{SQL: InsertSQL(table, f), Params: Values(f)}
}

// BuildInsertReturning is BuildInsert with a RETURNING clause for one column.
func BuildInsertReturning(table string, f *Fields, returning string) Statement {
	st := BuildInsert(table, f)
	st.SQL += " RETURNING " + returning
	return st
}

// UpdateSQL renders UPDATE table SET c1 = $2, c2 = $3 WHERE pk = $1.
// $1 is reserved for the primary key value.
func UpdateSQL(table string, f *Fields, primaryKey string) string {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	keys := f.Keys()
	set := make([]string, len(keys))
	for i, k := range keys {
		set[i] = k + " = " + placeholder(i+2)
	}
	return "UPDATE " + table + " SET " + strings.Join(set, ", ") + " WHERE " + primaryKey + " = $1"
}

// BuildUpdate binds pkValue as $1 followed by the values of f.
func BuildUpdate(table string, f *Fields, primaryKey string, pkValue any) Statement {
	params := make([]any, 0, f.Len()+1)
	params = append(params, pkValue)
	params = append(params, Values(f)...)
	return Statement{SQL: UpdateSQL(table, f, primaryKey), Params: params}
}

// DeleteSQL renders DELETE FROM table WHERE pk = $1.
func DeleteSQL(table, primaryKey string) string {
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	return "DELETE FROM " + table + " WHERE " + primaryKey + " = $1"
}

func BuildDelete(table, primaryKey string, pkValue any) Statement {
	return Statement{SQL: DeleteSQL(table, primaryKey), Params: []any{pkValue}}
}

// Values returns the values of f in key order. Nil stays nil.
func Values(f *Fields) []any {
	out := make([]any, len(f.keys))
	for i, k := range f.keys {
		out[i] = f.values[k]
	}
	return out
}

// ExtractValues is Values with nil replaced by the string "NULL". Bound as a
// parameter that is the text NULL, not SQL NULL.
func ExtractValues(f *Fields) []any {
	out := Values(f)
	for i, v := range out {
		if v == nil {
			out[i] = NullSentinel
		}
	}
	return out
}
