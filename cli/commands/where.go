package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/config"
	"github.com/satishbabariya/querykit/cli/internal/ui"
	"github.com/satishbabariya/querykit/cli/internal/watch"
	"github.com/satishbabariya/querykit/query/sqlgen"
)

type whereOptions struct {
	json     string
	expr     string
	start    int
	raw      bool
	markdown bool
	watch    string
}

// NewWhereCommand creates the where command.
func NewWhereCommand() *cobra.Command {
	opts := &whereOptions{}

	cmd := &cobra.Command{
		Use:   "where",
		Short: "Compile a filter into a WHERE clause",
		Long: `Compile a filter into a parameterized WHERE clause.

A filter is either a flat JSON object (--json '{"status": "active", "id": [1, 2]}')
or an expression (--expr "age >= 18 and (role = 'admin' or role = 'owner')").`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch != "" {
				return runWhereWatch(cmd, opts)
			}
			return runWhere(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.json, "json", "", "Flat JSON filter")
	cmd.Flags().StringVar(&opts.expr, "expr", "", "Filter expression")
	cmd.Flags().IntVar(&opts.start, "start", 1, "First placeholder index")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print plain SQL and args")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "Render the result as markdown")
	cmd.Flags().StringVar(&opts.watch, "watch", "", "Recompile a filter file on every change (.json or expression)")

	return cmd
}

func runWhere(out io.Writer, opts *whereOptions) error {
	w, err := readFilter(opts.json, opts.expr)
	if err != nil {
		return err
	}
	return printClause(out, sqlgen.CompileWhere(w, opts.start), opts)
}

func printClause(out io.Writer, clause sqlgen.Clause, opts *whereOptions) error {
	sql := clause.SQL
	if clause.IsEmpty() {
		sql = "-- no filter"
	}
	args := ui.FormatArgs(opts.start, clause.Args)

	switch {
	case opts.raw:
		_, err := fmt.Fprintf(out, "%s\n%s\n", sql, args)
		return err
	case opts.markdown:
		md := fmt.Sprintf("## WHERE clause\n\n```sql\n%s\n```\n\n**Arguments:** %s\n\n**Next placeholder:** `%s`\n",
			sql, args, sqlgen.Placeholder(clause.Next()))
		return ui.PrintMarkdown(out, md)
	default:
		ui.PrintBox(out, "WHERE clause", sql+"\n\n"+ui.SecondaryStyle.Render("args: ")+args)
		return nil
	}
}

func runWhereWatch(cmd *cobra.Command, opts *whereOptions) error {
	out := cmd.OutOrStdout()
	file := opts.watch

	compile := func() error {
		data, err := afero.ReadFile(config.AppFs, file)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(string(data))
		fileOpts := *opts
		fileOpts.json, fileOpts.expr = "", ""
		if strings.EqualFold(filepath.Ext(file), ".json") {
			fileOpts.json = text
		} else {
			fileOpts.expr = text
		}
		if err := runWhere(out, &fileOpts); err != nil {
			ui.PrintError(out, "%v", err)
		}
		return nil
	}

	w, err := watch.NewWatcher(file, cmd.ErrOrStderr(), compile)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		return err
	}
	ui.PrintInfo(out, "Watching %s, press Ctrl+C to stop", file)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	<-ctx.Done()
	return nil
}
