package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/ui"
)

// NewPingCommand creates the ping command.
func NewPingCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Acquire a checked connection and report pool state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd, root)
		},
	}

	return cmd
}

func runPing(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := root.connect(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	started := time.Now()
	lease, err := s.acquirer.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	elapsed := time.Since(started)

	info := s.pool.Info()
	stats := s.pool.Stats()
	if err := lease.Release(); err != nil {
		s.logger.Warn("releasing ping connection failed", "error", err)
	}

	ui.PrintSuccess(out, "Connected to %s in %s", info, elapsed.Round(time.Millisecond))
	return ui.PrintTable(out, []string{"Setting", "Value"}, [][]string{
		{"driver", s.cfg.Driver},
		{"host", info.Host},
		{"port", strconv.Itoa(info.Port)},
		{"user", info.User},
		{"database", info.Database},
		{"max size", strconv.Itoa(info.MaxSize)},
		{"open", strconv.Itoa(stats.Total)},
		{"idle", strconv.Itoa(stats.Idle)},
		{"in use", strconv.Itoa(stats.InUse)},
		{"waiting", strconv.FormatInt(stats.Waiting, 10)},
	})
}
