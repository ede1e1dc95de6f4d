package sqlgen

import (
	"github.com/satishbabariya/querykit/query/filter"
)

// Clause is a compiled SQL fragment with its bound arguments in
// placeholder order.
type Clause struct {
	SQL   string
	Args  []any
	start int
}

// IsEmpty reports whether the clause produced no SQL.
func (c Clause) IsEmpty() bool {
	return c.SQL == ""
}

// Next returns the first placeholder index not used by the clause.
func (c Clause) Next() int {
	start := c.start
	if start < 1 {
		start = 1
	}
	return start + len(c.Args)
}

// CompileWhere compiles a filter into a "WHERE ..." clause whose
// placeholders start at start. Use start > 1 when the clause follows other
// parameterized SQL, for example the SET list of an UPDATE.
//
// A nil filter, or one that compiles to nothing, yields an empty clause.
func CompileWhere(w filter.Where, start int) Clause {
	inner := CompileNode(filter.Normalize(w), start)
	if inner.IsEmpty() {
		return Clause{Args: []any{}, start: inner.start}
	}
	inner.SQL = "WHERE " + inner.SQL
	return inner
}

// CompileNode compiles a condition tree without the WHERE keyword.
func CompileNode(node filter.Node, start int) Clause {
	if start < 1 {
		start = 1
	}
	argIndex := start
	sql, args := buildNode(node, &argIndex)
	if sql == "" {
		return Clause{Args: []any{}, start: start}
	}
	if args == nil {
		args = []any{}
	}
	return Clause{SQL: sql, Args: args, start: start}
}
