// Package sqlgen generates parameterized PostgreSQL text from filters and
// query parts. Placeholders are positional and 1-based ($1, $2, ...).
package sqlgen

import (
	"strconv"
	"strings"
)

// Query represents a SQL query with arguments
type Query struct {
	SQL  string
	Args []any
}

// Placeholder returns the positional placeholder for index n.
func Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// placeholders returns count placeholders starting at *argIndex and
// advances the index past them.
func placeholders(argIndex *int, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = Placeholder(*argIndex)
		(*argIndex)++
	}
	return out
}

// Join concatenates non-empty SQL fragments with single spaces.
func Join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
