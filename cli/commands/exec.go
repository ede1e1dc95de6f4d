package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/ui"
	"github.com/satishbabariya/querykit/query/sqlgen"
	"github.com/satishbabariya/querykit/runtime/client"
)

var errAborted = errors.New("aborted")

// confirm asks before running a statement. Replaced in tests.
var confirm = func(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

type execOptions struct {
	yes        bool
	query      bool
	quiet      bool
	noTx       bool
	noRollback bool
	isolation  string
	readOnly   bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(root *rootOptions) *cobra.Command {
	opts := &execOptions{}

	cmd := &cobra.Command{
		Use:   "exec SQL [ARGS...]",
		Short: "Run a statement inside the transaction handler",
		Long: `Run one SQL statement through the connection layer and the transaction
handler. Positional ARGS bind to $1, $2, ... in order.

By default the statement runs in a transaction that is rolled back on
error, database errors are logged with their full diagnostics and the
command fails.`,
		Example: `  querykit exec "UPDATE users SET active = false WHERE id = $1" 42 --yes
  querykit exec "SELECT * FROM users WHERE email = $1" a@b.c --query`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, root, opts, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt (implied by --query)")
	cmd.Flags().BoolVar(&opts.query, "query", false, "Return rows instead of an affected-row count")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Report failures without a non-zero exit")
	cmd.Flags().BoolVar(&opts.noTx, "no-tx", false, "Run without BEGIN/COMMIT")
	cmd.Flags().BoolVar(&opts.noRollback, "no-rollback", false, "Do not roll back on failure")
	cmd.Flags().StringVar(&opts.isolation, "isolation", "", "Isolation level (read-uncommitted, read-committed, repeatable-read, serializable)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Start a read-only transaction")

	return cmd
}

func (o *execOptions) policy() ([]client.PolicyOption, error) {
	var opts []client.PolicyOption
	if o.quiet {
		opts = append(opts, client.Quiet())
	}
	if o.noTx {
		opts = append(opts, client.NoTransaction())
	}
	if o.noRollback {
		opts = append(opts, client.NoRollback())
	}
	if o.readOnly {
		opts = append(opts, client.ReadOnly())
	}
	if o.isolation != "" {
		level, err := parseIsolation(o.isolation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithIsolation(level))
	}
	return opts, nil
}

func parseIsolation(s string) (client.IsolationLevel, error) {
	switch strings.ToLower(strings.NewReplacer("_", "-", " ", "-").Replace(s)) {
	case "read-uncommitted":
		return client.ReadUncommitted, nil
	case "read-committed":
		return client.ReadCommitted, nil
	case "repeatable-read":
		return client.RepeatableRead, nil
	case "serializable":
		return client.Serializable, nil
	default:
		return client.LevelDefault, fmt.Errorf("unknown isolation level %q", s)
	}
}

func runExec(cmd *cobra.Command, root *rootOptions, opts *execOptions, sql string, rawArgs []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	policy, err := opts.policy()
	if err != nil {
		return err
	}

	q := sqlgen.Query{SQL: sql, Args: make([]any, len(rawArgs))}
	for i, a := range rawArgs {
		q.Args[i] = a
	}

	if !opts.yes && !opts.query {
		ui.PrintBox(out, "Statement", sql+"\n\n"+ui.SecondaryStyle.Render("args: ")+ui.FormatArgs(1, q.Args))
		ok, err := confirm("Run this statement?")
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	s, err := root.connect(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.query {
		rows, err := s.executor.QueryRaw(ctx, q, policy...)
		if err != nil {
			return err
		}
		if rows == nil {
			ui.PrintWarning(out, "Statement failed, see log")
			return nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	res := s.executor.ExecRawOutcome(ctx, q, policy...)
	switch res.Outcome {
	case client.OutcomePropagated:
		return res.Err
	case client.OutcomeRecovered:
		ui.PrintWarning(out, "Statement failed, see log: %v", res.Err)
		return nil
	}
	s.logger.Debug("statement executed", "rows_affected", res.Value)
	ui.PrintSuccess(out, "%d row(s) affected", res.Value)
	return nil
}
