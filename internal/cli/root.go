// Package cli provides the command-line interface for pyshell.
package cli

import (
	"fmt"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pyshell",
	Short: "pyshell - reproducible Python development shells",
	Long: `pyshell provisions per-project Python environments with GUI toolkit
support and drops you into a shell where they are already active.

One command builds the virtual environment, wires the GUI toolkit
libraries, installs the dependency manifest, and remembers the result,
so the second launch is instant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "version", "completion", "hook", "install":
			return nil
		}
		return config.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(installCmd)
}
