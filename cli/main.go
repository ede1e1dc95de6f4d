// Command querykit compiles filters into SQL and runs statements through
// the resilient connection layer.
package main

import (
	"context"
	"os"

	"github.com/satishbabariya/querykit/cli/commands"
	"github.com/satishbabariya/querykit/cli/internal/ui"
)

func main() {
	if err := commands.Execute(context.Background()); err != nil {
		ui.PrintError(os.Stderr, "Error: %v", err)
		os.Exit(1)
	}
}
