package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "End the environment's shell session",
	Long: `End a live shell session from outside it.

Useful when a session runs detached from any terminal, like a GUI
window started from a launcher, or when a session is stuck. The
session's shell receives SIGTERM, then SIGKILL if it does not exit.`,
	RunE: runStop,
}

var stopEnvName string

func init() {
	stopCmd.Flags().StringVar(&stopEnvName, "env", "", "Environment whose session to stop (default: current directory or active)")

	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}
	entry, err := resolveEntry(registry, stopEnvName)
	if err != nil {
		return err
	}
	paths, err := config.GetPaths()
	if err != nil {
		return err
	}

	active, pid := sessionActive(paths.DataDir, entry.Name)
	if !active {
		fmt.Printf("No session is active for '%s'.\n", entry.Name)
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find session process: %w", err)
	}

	fmt.Printf("Stopping session (PID %d)...\n", pid)
	process.Signal(syscall.SIGTERM)

	// Give the shell a moment to exit before escalating
	for i := 0; i < 10; i++ {
		time.Sleep(200 * time.Millisecond)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			clearSessionPID(paths.DataDir, entry.Name)
			fmt.Println("Session stopped.")
			return nil
		}
	}

	process.Signal(syscall.SIGKILL)
	time.Sleep(500 * time.Millisecond)
	clearSessionPID(paths.DataDir, entry.Name)
	fmt.Println("Session killed.")
	return nil
}
