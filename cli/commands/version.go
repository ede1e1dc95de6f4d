package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/ui"
	"github.com/satishbabariya/querykit/cli/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var (
		full    bool
		require string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			if require != "" {
				ok, err := info.Satisfies(require)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("querykit %s does not satisfy %q", info.Version, require)
				}
			}

			if full {
				fmt.Fprintln(out, info.FullString())
				return nil
			}
			ui.ColorPrint(out, ui.GetColorPrinters()["primary"], "%s\n", info.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print build details")
	cmd.Flags().StringVar(&require, "require", "", "Fail unless the version satisfies this constraint, e.g. '>= 0.1'")

	return cmd
}
