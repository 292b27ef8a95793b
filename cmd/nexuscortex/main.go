// Command nexuscortex is the reactive cognitive kernel's process
// entrypoint. Grounded on the teacher's AddEchoCommands cobra wiring
// (cmd/echo.go): a root command with RunE-backed subcommands rather than
// the flag-package mode switches of cmd/deeptreeecho's older main.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	envFile string
)

func main() {
	root := &cobra.Command{
		Use:   "nexuscortex",
		Short: "Reactive cognitive kernel",
		Long:  "nexuscortex runs the tick-driven reactor loop: intake, memory, monitor, intent, planner dispatch, crystallizer gate, and presence projection.",
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (defaults to ./.env)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("nexuscortex v%s\n", version)
			return nil
		},
	}
}
