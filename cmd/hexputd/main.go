package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hexput/runtime/internal/commands"
)

func main() {
	rootCmd := commands.NewRootCommand()
	err := rootCmd.Execute()
	os.Exit(exitCode(err))
}

// exitCode maps a run failure to the codes spec §6 defines: 0 normal,
// 1 configuration error, 2 bind failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, commands.ErrBind):
		fmt.Fprintln(os.Stderr, err)
		return 2
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
