// Package columns provides typed column references that build filter
// conditions and sort entries.
package columns

import (
	"github.com/satishbabariya/querykit/query/filter"
	"github.com/satishbabariya/querykit/query/sqlgen"
)

// Column is a column whose values have type T.
type Column[T any] struct {
	table string
	name  string
}

// New creates a column reference.
func New[T any](table, name string) Column[T] {
	return Column[T]{table: table, name: name}
}

// Name returns the column name
func (c Column[T]) Name() string {
	return c.name
}

// Table returns the table name
func (c Column[T]) Table() string {
	return c.table
}

// Qualified returns "table.name", or the bare name when no table is set.
func (c Column[T]) Qualified() string {
	if c.table == "" {
		return c.name
	}
	return c.table + "." + c.name
}

// Eq creates an equality condition
func (c Column[T]) Eq(value T) filter.Condition {
	return filter.Eq(c.name, value)
}

// Ne creates an inequality condition
func (c Column[T]) Ne(value T) filter.Condition {
	return filter.Ne(c.name, value)
}

// Gt creates a greater than condition
func (c Column[T]) Gt(value T) filter.Condition {
	return filter.Gt(c.name, value)
}

// Gte creates a greater than or equal condition
func (c Column[T]) Gte(value T) filter.Condition {
	return filter.Gte(c.name, value)
}

// Lt creates a less than condition
func (c Column[T]) Lt(value T) filter.Condition {
	return filter.Lt(c.name, value)
}

// Lte creates a less than or equal condition
func (c Column[T]) Lte(value T) filter.Condition {
	return filter.Lte(c.name, value)
}

// In creates an IN condition
func (c Column[T]) In(values ...T) filter.Condition {
	return filter.In(c.name, anys(values)...)
}

// NotIn creates a NOT IN condition
func (c Column[T]) NotIn(values ...T) filter.Condition {
	return filter.NotIn(c.name, anys(values)...)
}

// Between creates an inclusive range condition
func (c Column[T]) Between(low, high T) filter.Condition {
	return filter.Between(c.name, low, high)
}

// IsNull creates an IS NULL condition
func (c Column[T]) IsNull() filter.Condition {
	return filter.Eq(c.name, nil)
}

// Asc sorts by the column ascending
func (c Column[T]) Asc() sqlgen.Order {
	return sqlgen.Order{Column: c.name, Direction: sqlgen.Asc}
}

// Desc sorts by the column descending
func (c Column[T]) Desc() sqlgen.Order {
	return sqlgen.Order{Column: c.name, Direction: sqlgen.Desc}
}

// Text is a string column with pattern helpers.
type Text struct {
	Column[string]
}

// NewText creates a text column reference.
func NewText(table, name string) Text {
	return Text{Column: New[string](table, name)}
}

// Like matches a raw LIKE pattern
func (c Text) Like(pattern string) filter.Condition {
	return filter.Like(c.name, pattern)
}

// Contains matches values containing value
func (c Text) Contains(value string) filter.Condition {
	return filter.Like(c.name, "%"+value+"%")
}

// StartsWith matches values starting with value
func (c Text) StartsWith(value string) filter.Condition {
	return filter.Like(c.name, value+"%")
}

// EndsWith matches values ending with value
func (c Text) EndsWith(value string) filter.Condition {
	return filter.Like(c.name, "%"+value)
}

func anys[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
