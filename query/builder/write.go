package builder

import (
	"strings"

	"github.com/satishbabariya/querykit/query/filter"
	"github.com/satishbabariya/querykit/query/sqlgen"
)

// InsertBuilder builds single-row INSERT queries
type InsertBuilder struct {
	table     string
	values    Assignments
	returning []string
}

// Insert starts an INSERT into table.
func Insert(table string) InsertBuilder {
	return InsertBuilder{table: table}
}

// Values sets the row to insert.
func (b InsertBuilder) Values(values Assignments) InsertBuilder {
	b.values = values
	return b
}

// Returning sets the RETURNING columns.
func (b InsertBuilder) Returning(columns ...string) InsertBuilder {
	b.returning = clone(columns)
	return b
}

// Build renders the query.
func (b InsertBuilder) Build() (sqlgen.Query, error) {
	if err := checkTable(b.table); err != nil {
		return sqlgen.Query{}, err
	}
	if err := checkColumns(b.returning); err != nil {
		return sqlgen.Query{}, err
	}
	pairs, err := assignments(b.values)
	if err != nil {
		return sqlgen.Query{}, err
	}

	columns := make([]string, len(pairs))
	marks := make([]string, len(pairs))
	args := make([]any, len(pairs))
	for i, p := range pairs {
		columns[i] = p.Key
		marks[i] = sqlgen.Placeholder(i + 1)
		args[i] = p.Value
	}

	return sqlgen.Query{
		SQL: sqlgen.Join(
			"INSERT INTO "+b.table+" ("+strings.Join(columns, ", ")+") VALUES ("+strings.Join(marks, ", ")+")",
			returning(b.returning),
		),
		Args: args,
	}, nil
}

// UpdateBuilder builds UPDATE queries
type UpdateBuilder struct {
	table     string
	set       Assignments
	where     filter.Where
	returning []string
}

// Update starts an UPDATE of table.
func Update(table string) UpdateBuilder {
	return UpdateBuilder{table: table}
}

// Set sets the assigned columns.
func (b UpdateBuilder) Set(values Assignments) UpdateBuilder {
	b.set = values
	return b
}

// Where replaces the filter.
func (b UpdateBuilder) Where(w filter.Where) UpdateBuilder {
	b.where = w
	return b
}

// Returning sets the RETURNING columns.
func (b UpdateBuilder) Returning(columns ...string) UpdateBuilder {
	b.returning = clone(columns)
	return b
}

// Build renders the query. WHERE placeholders continue after the SET list.
func (b UpdateBuilder) Build() (sqlgen.Query, error) {
	if err := checkTable(b.table); err != nil {
		return sqlgen.Query{}, err
	}
	if err := checkColumns(b.returning); err != nil {
		return sqlgen.Query{}, err
	}
	pairs, err := assignments(b.set)
	if err != nil {
		return sqlgen.Query{}, err
	}

	sets := make([]string, len(pairs))
	args := make([]any, 0, len(pairs))
	for i, p := range pairs {
		sets[i] = p.Key + " = " + sqlgen.Placeholder(i+1)
		args = append(args, p.Value)
	}

	where := sqlgen.CompileWhere(b.where, len(args)+1)
	return sqlgen.Query{
		SQL: sqlgen.Join(
			"UPDATE "+b.table+" SET "+strings.Join(sets, ", "),
			where.SQL,
			returning(b.returning),
		),
		Args: append(args, where.Args...),
	}, nil
}

// DeleteBuilder builds DELETE queries
type DeleteBuilder struct {
	table     string
	where     filter.Where
	returning []string
}

// Delete starts a DELETE from table.
func Delete(table string) DeleteBuilder {
	return DeleteBuilder{table: table}
}

// Where replaces the filter.
func (b DeleteBuilder) Where(w filter.Where) DeleteBuilder {
	b.where = w
	return b
}

// Returning sets the RETURNING columns.
func (b DeleteBuilder) Returning(columns ...string) DeleteBuilder {
	b.returning = clone(columns)
	return b
}

// Build renders the query.
func (b DeleteBuilder) Build() (sqlgen.Query, error) {
	if err := checkTable(b.table); err != nil {
		return sqlgen.Query{}, err
	}
	if err := checkColumns(b.returning); err != nil {
		return sqlgen.Query{}, err
	}
	where := sqlgen.CompileWhere(b.where, 1)
	return sqlgen.Query{
		SQL:  sqlgen.Join("DELETE FROM "+b.table, where.SQL, returning(b.returning)),
		Args: where.Args,
	}, nil
}

var (
	_ Statement = SelectBuilder{}
	_ Statement = CountBuilder{}
	_ Statement = InsertBuilder{}
	_ Statement = UpdateBuilder{}
	_ Statement = DeleteBuilder{}
)
