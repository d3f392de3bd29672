// Package commands wires the hexputd CLI's cobra command tree, mirroring
// the teacher's single-root-plus-subcommands layout.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexput/runtime/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "hexputd",
		Short:   "Sandboxed WebSocket runtime for the Hexput scripting language",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
