// Package executor runs built statements through the transaction handler
// and returns raw rows.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/satishbabariya/querykit/query/builder"
	"github.com/satishbabariya/querykit/query/sqlgen"
	"github.com/satishbabariya/querykit/runtime/client"
	"github.com/satishbabariya/querykit/runtime/pool"
)

// ErrNotFound is returned by One when the query yields no row.
var ErrNotFound = errors.New("executor: no rows in result set")

// Row is a result row keyed by column name.
type Row = map[string]any

// Executor executes statements on connections leased by a client
type Executor struct {
	client *client.Client
}

// New creates a new executor
func New(c *client.Client) *Executor {
	return &Executor{client: c}
}

// Rows runs a query and returns every row.
func (e *Executor) Rows(ctx context.Context, stmt builder.Statement, opts ...client.PolicyOption) ([]Row, error) {
	q, err := stmt.Build()
	if err != nil {
		return nil, err
	}
	return client.Run(ctx, e.client, func(ctx context.Context, lease *pool.Lease) ([]Row, error) {
		return e.query(ctx, lease, q)
	}, opts...)
}

// One runs a query and returns its first row, or ErrNotFound.
func (e *Executor) One(ctx context.Context, stmt builder.Statement, opts ...client.PolicyOption) (Row, error) {
	q, err := stmt.Build()
	if err != nil {
		return nil, err
	}
	return client.Run(ctx, e.client, func(ctx context.Context, lease *pool.Lease) (Row, error) {
		rows, err := e.query(ctx, lease, q)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, ErrNotFound
		}
		return rows[0], nil
	}, opts...)
}

// Exec runs a statement and returns the number of affected rows.
func (e *Executor) Exec(ctx context.Context, stmt builder.Statement, opts ...client.PolicyOption) (int64, error) {
	q, err := stmt.Build()
	if err != nil {
		return 0, err
	}
	return e.ExecRaw(ctx, q, opts...)
}

// ExecRaw runs an already rendered statement.
func (e *Executor) ExecRaw(ctx context.Context, q sqlgen.Query, opts ...client.PolicyOption) (int64, error) {
	return client.Run(ctx, e.client, e.execWork(q), opts...)
}

// ExecRawOutcome is ExecRaw reporting how the call was resolved, so a
// recovered failure can be told apart from a statement that touched no rows.
func (e *Executor) ExecRawOutcome(ctx context.Context, q sqlgen.Query, opts ...client.PolicyOption) client.Result[int64] {
	return client.RunOutcome(ctx, e.client, e.execWork(q), opts...)
}

func (e *Executor) execWork(q sqlgen.Query) client.Work[int64] {
	return func(ctx context.Context, lease *pool.Lease) (int64, error) {
		var affected int64
		err := e.client.Intercept(ctx, q.SQL, q.Args, func() error {
			res, err := lease.ExecContext(ctx, q.SQL, q.Args...)
			if err != nil {
				return err
			}
			affected, err = res.RowsAffected()
			return err
		})
		return affected, err
	}
}

// QueryRaw runs an already rendered query and returns every row.
func (e *Executor) QueryRaw(ctx context.Context, q sqlgen.Query, opts ...client.PolicyOption) ([]Row, error) {
	return client.Run(ctx, e.client, func(ctx context.Context, lease *pool.Lease) ([]Row, error) {
		return e.query(ctx, lease, q)
	}, opts...)
}

// Count runs a COUNT query.
func (e *Executor) Count(ctx context.Context, stmt builder.CountBuilder, opts ...client.PolicyOption) (int64, error) {
	q, err := stmt.Build()
	if err != nil {
		return 0, err
	}
	return client.Run(ctx, e.client, func(ctx context.Context, lease *pool.Lease) (int64, error) {
		var n int64
		err := e.client.Intercept(ctx, q.SQL, q.Args, func() error {
			rows, err := lease.QueryContext(ctx, q.SQL, q.Args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			if !rows.Next() {
				if err := rows.Err(); err != nil {
					return err
				}
				return ErrNotFound
			}
			if err := rows.Scan(&n); err != nil {
				return fmt.Errorf("failed to scan count: %w", err)
			}
			return rows.Err()
		})
		return n, err
	}, opts...)
}

func (e *Executor) query(ctx context.Context, lease *pool.Lease, q sqlgen.Query) ([]Row, error) {
	var out []Row
	err := e.client.Intercept(ctx, q.SQL, q.Args, func() error {
		rows, err := lease.QueryContext(ctx, q.SQL, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = scanRows(rows)
		return err
	})
	return out, err
}

// scanRows reads every row into a map. []byte values are copied into
// strings since the driver may reuse the buffer.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
