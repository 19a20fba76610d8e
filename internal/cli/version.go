package cli

import (
	"fmt"

	"github.com/javanstorm/pyshell/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the version, commit hash, and build date of pyshell.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pyshell %s\n", version.Version)
		fmt.Printf("  Commit:     %s\n", version.Commit)
		fmt.Printf("  Build Date: %s\n", version.BuildDate)
	},
}
