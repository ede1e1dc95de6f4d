package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/ui"
	"github.com/satishbabariya/querykit/query/builder"
)

type selectOptions struct {
	table   string
	columns []string
	json    string
	expr    string
	order   string
	limit   int
	offset  int
	count   bool
	asJSON  bool
}

// NewSelectCommand creates the select command.
func NewSelectCommand(root *rootOptions) *cobra.Command {
	opts := &selectOptions{}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run a filtered SELECT and print the rows",
		Example: `  querykit select --table users --expr 'age >= 18' --order 'name, id desc' --limit 10
  querykit select --table users --json '{"status": "active"}' --count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.table, "table", "", "Table to read")
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "Columns to return (default all)")
	cmd.Flags().StringVar(&opts.json, "json", "", "Flat JSON filter")
	cmd.Flags().StringVar(&opts.expr, "expr", "", "Filter expression")
	cmd.Flags().StringVar(&opts.order, "order", "", "Sort order, e.g. 'name, id desc'")
	cmd.Flags().IntVar(&opts.limit, "limit", -1, "Maximum number of rows")
	cmd.Flags().IntVar(&opts.offset, "offset", -1, "Number of rows to skip")
	cmd.Flags().BoolVar(&opts.count, "count", false, "Only count matching rows")
	cmd.Flags().BoolVar(&opts.asJSON, "output-json", false, "Print rows as JSON")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runSelect(cmd *cobra.Command, root *rootOptions, opts *selectOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	where, err := readFilter(opts.json, opts.expr)
	if err != nil {
		return err
	}

	s, err := root.connect(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.count {
		n, err := s.executor.Count(ctx, builder.Count(opts.table).Where(where))
		if err != nil {
			return err
		}
		ui.PrintInfo(out, "%d matching row(s)", n)
		return nil
	}

	orders, err := parseOrder(opts.order)
	if err != nil {
		return err
	}

	stmt := builder.Select(opts.table).Columns(opts.columns...).Where(where).OrderBy(orders...)
	if opts.limit >= 0 {
		stmt = stmt.Limit(opts.limit)
	}
	if opts.offset >= 0 {
		stmt = stmt.Offset(opts.offset)
	}

	rows, err := s.executor.Rows(ctx, stmt)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		ui.PrintWarning(out, "No rows")
		return nil
	}
	headers, cells := rowTable(rows, opts.columns)
	if err := ui.PrintTable(out, headers, cells); err != nil {
		return err
	}
	ui.PrintInfo(out, "%d row(s)", len(rows))
	return nil
}
