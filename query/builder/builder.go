// Package builder provides immutable query builders. Every chained call
// returns a new value, so a partially built query can be shared and
// extended safely.
package builder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/satishbabariya/querykit/query/filter"
	"github.com/satishbabariya/querykit/query/sqlgen"
)

var (
	// ErrNoTable is returned when a builder has no table name.
	ErrNoTable = errors.New("builder: table name is required")

	// ErrNoValues is returned by INSERT and UPDATE builders with nothing to write.
	ErrNoValues = errors.New("builder: no values to write")

	// ErrInvalidIdentifier is returned for table or column names that are
	// not plain (optionally qualified) SQL identifiers.
	ErrInvalidIdentifier = errors.New("builder: invalid identifier")
)

// Statement is anything that builds to a parameterized query.
type Statement interface {
	Build() (sqlgen.Query, error)
}

// Assignments is a column/value list: filter.Map (sorted by column) or
// filter.Fields (caller order). Entries holding filter.Undefined are skipped.
type Assignments interface {
	Pairs() filter.Fields
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

func checkTable(table string) error {
	if table == "" {
		return ErrNoTable
	}
	return checkIdent(table)
}

func checkColumns(columns []string) error {
	for _, c := range columns {
		if c == "*" {
			continue
		}
		if err := checkIdent(c); err != nil {
			return err
		}
	}
	return nil
}

// assignments drops undefined entries and validates column names.
func assignments(a Assignments) (filter.Fields, error) {
	if a == nil {
		return nil, ErrNoValues
	}
	var out filter.Fields
	for _, p := range a.Pairs() {
		if p.Value == filter.Undefined {
			continue
		}
		if err := checkIdent(p.Key); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoValues
	}
	return out, nil
}

func returning(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	return "RETURNING " + strings.Join(columns, ", ")
}

// clone copies a slice so appends never alias a shared builder's storage.
func clone[T any](s []T, extra ...T) []T {
	out := make([]T, 0, len(s)+len(extra))
	out = append(out, s...)
	return append(out, extra...)
}

func intPtr(n int) *int {
	return &n
}
