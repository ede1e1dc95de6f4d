package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/config"
	"github.com/satishbabariya/querykit/cli/internal/ui"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write configuration",
	}

	cmd.AddCommand(newConfigShowCommand(root))
	cmd.AddCommand(newConfigInitCommand(root))

	return cmd
}

func newConfigShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			url := "(not set)"
			if cfg.DatabaseURL != "" {
				url = "(set)"
			}
			return ui.PrintTable(cmd.OutOrStdout(), []string{"Key", "Value"}, [][]string{
				{"database_url", url},
				{"driver", cfg.Driver},
				{"pool.max_open", strconv.Itoa(cfg.Pool.MaxOpen)},
				{"pool.max_idle", strconv.Itoa(cfg.Pool.MaxIdle)},
				{"pool.conn_max_lifetime", cfg.Pool.ConnMaxLifetime.String()},
				{"pool.conn_max_idle_time", cfg.Pool.ConnMaxIdleTime.String()},
				{"retry.max_attempts", strconv.Itoa(cfg.Retry.MaxAttempts)},
				{"retry.base_delay", cfg.Retry.BaseDelay.String()},
				{"retry.max_delay", cfg.Retry.MaxDelay.String()},
				{"retry.jitter", strconv.FormatBool(cfg.Retry.Jitter)},
				{"sweep.interval", cfg.Sweep.Interval.String()},
				{"sweep.idle_threshold", cfg.Sweep.IdleThreshold.String()},
				{"log.level", cfg.Log.Level},
				{"log.format", cfg.Log.Format},
			})
		},
	}
}

func newConfigInitCommand(root *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			if path == "" {
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			ui.PrintSuccess(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Output file (default ~/.config/querykit/.querykit.yaml)")

	return cmd
}
