package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset an environment to a clean state",
	Long: `Reset an environment to a clean state. Ends any live shell session,
removes the venv, and clears the recorded setup state.

This is useful when:
  - The venv is broken beyond repair
  - You want a guaranteed-fresh install of all dependencies
  - You want to reclaim disk space

The pyshell.toml file and snapshots are kept. Use --registry to also
forget the environment and delete its data.

Examples:
  pyshell reset              # Reset the current environment
  pyshell reset --registry   # Also forget it and delete its data`,
	RunE: runReset,
}

var (
	resetRegistry bool
	resetYes      bool
	resetEnvName  string
)

func init() {
	resetCmd.Flags().BoolVar(&resetRegistry, "registry", false, "Also remove the environment from the registry and delete its data")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().StringVar(&resetEnvName, "env", "", "Environment to reset (default: current directory or active)")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}
	entry, err := resolveEntry(registry, resetEnvName)
	if err != nil {
		return err
	}

	if !resetYes {
		fmt.Printf("This removes the venv for '%s' at %s.\n", entry.Name, filepath.Join(entry.Root, entry.VenvDir))
		if resetRegistry {
			fmt.Println("It also forgets the environment and deletes its state and snapshots.")
		}
		if !promptYesNo("Continue?", false) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	dataDir := registry.DataDir(entry.Name)

	// Step 1: End any live shell session
	pidFile := filepath.Join(dataDir, "session.pid")
	if data, err := os.ReadFile(pidFile); err == nil {
		var pid int
		if _, err := fmt.Sscanf(string(data), "%d", &pid); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					fmt.Printf("Ending shell session (PID %d)...\n", pid)
					process.Signal(syscall.SIGKILL)
					time.Sleep(500 * time.Millisecond)
				}
			}
		}
		os.Remove(pidFile)
	}

	// Step 2: Remove the venv
	venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}
	if venv.Exists() {
		if err := venv.Remove(); err != nil {
			return err
		}
		fmt.Println("Removed venv")
	}

	// Step 3: Clear the recorded setup state
	if err := env.NewStateFile(dataDir).Reset(); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}

	// Step 4: Forget the environment if requested
	if resetRegistry {
		if err := registry.DeleteData(entry.Name); err != nil {
			fmt.Printf("Warning: failed to delete environment data: %v\n", err)
		}
		if err := registry.Remove(entry.Name); err != nil {
			return fmt.Errorf("forget environment: %w", err)
		}
		fmt.Printf("Forgot environment '%s'\n", entry.Name)
	}

	fmt.Println("\nReset complete. Run 'pyshell setup' to start fresh.")
	return nil
}
