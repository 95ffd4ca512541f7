package statement

import (
	"fmt"
	"strings"
)

// SelectBuilder is a fluent SELECT builder. Conditions use ? markers which
// are renumbered to $n when the statement is built.
type SelectBuilder struct {
	table       string
	selectCols  []string
	whereOps    []string
	args        []any
	joinClauses []string
	orderBy     string
	limit       int
	offset      int
}

func Select(table string) *SelectBuilder {
	return &SelectBuilder{table: table}
}

func (qb *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	qb.selectCols = cols
	return qb
}

// Where adds a condition such as "age > ?". Conditions are ANDed.
func (qb *SelectBuilder) Where(cond string, vals ...any) *SelectBuilder {
	qb.whereOps = append(qb.whereOps, cond)
	qb.args = append(qb.args, vals...)
	return qb
}

// WhereEq adds "col = ?".
func (qb *SelectBuilder) WhereEq(col string, val any) *SelectBuilder {
	return qb.Where(col+" = ?", val)
}

// Join adds a JOIN clause (e.g. "JOIN other_table ON ...")
func (qb *SelectBuilder) Join(clause string) *SelectBuilder {
	qb.joinClauses = append(qb.joinClauses, clause)
	return qb
}

func (qb *SelectBuilder) OrderBy(order string) *SelectBuilder {
	qb.orderBy = order
	return qb
}

func (qb *SelectBuilder) Limit(n int) *SelectBuilder {
	qb.limit = n
	return qb
}

func (qb *SelectBuilder) Offset(n int) *SelectBuilder {
	qb.offset = n
	return qb
}

// Build assembles the SELECT statement.
func (qb *SelectBuilder) Build() Statement {
	parts := []string{"SELECT"}
	if len(qb.selectCols) > 0 {
		parts = append(parts, strings.Join(qb.selectCols, ", "))
	} else {
		parts = append(parts, "*")
	}
	parts = append(parts, "FROM", qb.table)
	if len(qb.joinClauses) > 0 {
		parts = append(parts, strings.Join(qb.joinClauses, " "))
	}
	if len(qb.whereOps) > 0 {
		parts = append(parts, "WHERE", strings.Join(qb.whereOps, " AND "))
	}
	if qb.orderBy != "" {
		parts = append(parts, "ORDER BY", qb.orderBy)
	}
	if qb.limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", qb.limit))
	}
	if qb.offset > 0 {
		parts = append(parts, fmt.Sprintf("OFFSET %d", qb.offset))
	}
	params := make([]any, len(qb.args))
	copy(params, qb.args)
	return Statement{SQL: renumber(strings.Join(parts, " ")), Params: params}
}

// renumber replaces ? markers outside single-quoted literals with $1, $2, ...
func renumber(sql string) string {
	var b strings.Builder
	n := 0
	quoted := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteString(placeholder(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
