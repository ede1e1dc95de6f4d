package builder

import (
	"strings"

	"github.com/satishbabariya/querykit/query/filter"
	"github.com/satishbabariya/querykit/query/sqlgen"
)

// SelectBuilder builds SELECT queries
type SelectBuilder struct {
	table   string
	columns []string
	where   filter.Where
	orderBy []sqlgen.Order
	limit   *int
	offset  *int
}

// Select starts a SELECT on table. Without Columns it selects *.
func Select(table string) SelectBuilder {
	return SelectBuilder{table: table}
}

// Columns replaces the selected columns.
func (b SelectBuilder) Columns(columns ...string) SelectBuilder {
	b.columns = clone(columns)
	return b
}

// Where replaces the filter.
func (b SelectBuilder) Where(w filter.Where) SelectBuilder {
	b.where = w
	return b
}

// OrderBy appends sort entries.
func (b SelectBuilder) OrderBy(orders ...sqlgen.Order) SelectBuilder {
	b.orderBy = clone(b.orderBy, orders...)
	return b
}

// Limit sets LIMIT.
func (b SelectBuilder) Limit(n int) SelectBuilder {
	b.limit = intPtr(n)
	return b
}

// Offset sets OFFSET.
func (b SelectBuilder) Offset(n int) SelectBuilder {
	b.offset = intPtr(n)
	return b
}

// Build renders the query.
func (b SelectBuilder) Build() (sqlgen.Query, error) {
	if err := checkTable(b.table); err != nil {
		return sqlgen.Query{}, err
	}
	if err := checkColumns(b.columns); err != nil {
		return sqlgen.Query{}, err
	}
	for _, o := range b.orderBy {
		if err := checkIdent(o.Column); err != nil {
			return sqlgen.Query{}, err
		}
	}

	columns := "*"
	if len(b.columns) > 0 {
		columns = strings.Join(b.columns, ", ")
	}

	where := sqlgen.CompileWhere(b.where, 1)
	return sqlgen.Query{
		SQL: sqlgen.Join(
			"SELECT "+columns+" FROM "+b.table,
			where.SQL,
			sqlgen.BuildOrderBy(b.orderBy),
			sqlgen.BuildLimit(b.limit),
			sqlgen.BuildOffset(b.offset),
		),
		Args: where.Args,
	}, nil
}

// CountBuilder builds SELECT COUNT(*) queries
type CountBuilder struct {
	table string
	where filter.Where
}

// Count starts a row count on table.
func Count(table string) CountBuilder {
	return CountBuilder{table: table}
}

// Where replaces the filter.
func (b CountBuilder) Where(w filter.Where) CountBuilder {
	b.where = w
	return b
}

// Build renders the query.
func (b CountBuilder) Build() (sqlgen.Query, error) {
	if err := checkTable(b.table); err != nil {
		return sqlgen.Query{}, err
	}
	where := sqlgen.CompileWhere(b.where, 1)
	return sqlgen.Query{
		SQL:  sqlgen.Join("SELECT COUNT(*) FROM "+b.table, where.SQL),
		Args: where.Args,
	}, nil
}
