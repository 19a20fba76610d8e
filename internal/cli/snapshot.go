package cli

import (
	"fmt"
	"path/filepath"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/host"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Backup/restore installed packages",
	Long: `Create, list, restore, and delete package snapshots.

A snapshot is the environment's pip freeze output, compressed and
checksummed. Restoring replays it into the venv, removing packages
that are not in the snapshot.`,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a snapshot",
	Long:  `Capture the environment's currently installed packages as a snapshot.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotCreate,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	Long:  `List all snapshots for the environment.`,
	RunE:  runSnapshotList,
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore a snapshot",
	Long:  `Restore the venv's packages from a snapshot. No shell session may be active.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotRestore,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a snapshot",
	Long:  `Delete a snapshot and its associated files.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotDelete,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show snapshot details",
	Long:  `Show detailed information about a snapshot, including an integrity check.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

var (
	snapshotDescription string
	snapshotEnvName     string
)

func init() {
	snapshotCreateCmd.Flags().StringVarP(&snapshotDescription, "description", "d", "", "Description for the snapshot")
	snapshotCmd.PersistentFlags().StringVar(&snapshotEnvName, "env", "", "Environment to operate on (default: current directory or active)")

	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)

	rootCmd.AddCommand(snapshotCmd)
}

// getSnapshotManager resolves the target environment and returns a
// snapshot manager rooted at the shared data directory.
func getSnapshotManager() (*env.SnapshotManager, *env.Entry, env.Venv, error) {
	registry, err := getRegistry()
	if err != nil {
		return nil, nil, env.Venv{}, err
	}
	entry, err := resolveEntry(registry, snapshotEnvName)
	if err != nil {
		return nil, nil, env.Venv{}, err
	}
	paths, err := config.GetPaths()
	if err != nil {
		return nil, nil, env.Venv{}, err
	}

	mgr := env.NewSnapshotManager(paths.DataDir, host.NewExecRunner())
	venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}
	return mgr, entry, venv, nil
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	mgr, entry, venv, err := getSnapshotManager()
	if err != nil {
		return err
	}
	if !venv.Exists() {
		return env.ErrNotSetup
	}

	fmt.Printf("Creating snapshot '%s'...\n", name)

	if err := mgr.Create(cmd.Context(), venv, entry.Name, name, snapshotDescription); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	size, err := mgr.FileSize(entry.Name, name)
	if err == nil {
		fmt.Printf("Snapshot created: %s (%.2f KB compressed)\n", name, float64(size)/1024)
	} else {
		fmt.Printf("Snapshot created: %s\n", name)
	}

	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	mgr, entry, _, err := getSnapshotManager()
	if err != nil {
		return err
	}

	snapshots, err := mgr.List(entry.Name)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots found. Create one with: pyshell snapshot create <name>")
		return nil
	}

	fmt.Printf("Snapshots for '%s':\n", entry.Name)
	for _, snap := range snapshots {
		fmt.Printf("  %s\n", snap.Name)
		fmt.Printf("    Created: %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
		if snap.Description != "" {
			fmt.Printf("    Description: %s\n", snap.Description)
		}
		fmt.Printf("    Packages: %d\n", snap.Packages)
		if size, err := mgr.FileSize(entry.Name, snap.Name); err == nil {
			fmt.Printf("    Size: %s\n", formatSize(size))
		}
	}

	return nil
}

func runSnapshotRestore(cmd *cobra.Command, args []string) error {
	name := args[0]

	mgr, entry, venv, err := getSnapshotManager()
	if err != nil {
		return err
	}
	if !venv.Exists() {
		return env.ErrNotSetup
	}

	paths, err := config.GetPaths()
	if err != nil {
		return err
	}

	// Check for a live shell session
	if active, pid := sessionActive(paths.DataDir, entry.Name); active {
		fmt.Printf("Error: a shell session is active (PID %d).\n", pid)
		fmt.Println("Exit it before restoring; packages would change underneath it.")
		return fmt.Errorf("session active")
	}

	// Get snapshot info for confirmation
	snap, err := mgr.Get(entry.Name, name)
	if err != nil {
		return fmt.Errorf("get snapshot: %w", err)
	}

	fmt.Printf("Restoring from snapshot '%s'...\n", name)
	fmt.Printf("  Created: %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Packages: %d\n", snap.Packages)
	fmt.Println()
	fmt.Println("WARNING: packages not in the snapshot will be removed.")
	if !promptYesNo("Continue?", true) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := mgr.Restore(cmd.Context(), venv, entry.Name, name); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	fmt.Printf("Snapshot '%s' restored successfully.\n", name)

	return nil
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	mgr, entry, _, err := getSnapshotManager()
	if err != nil {
		return err
	}

	if err := mgr.Delete(entry.Name, name); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	fmt.Printf("Snapshot '%s' deleted.\n", name)

	return nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	mgr, entry, _, err := getSnapshotManager()
	if err != nil {
		return err
	}

	snap, err := mgr.Get(entry.Name, name)
	if err != nil {
		return fmt.Errorf("get snapshot: %w", err)
	}

	fmt.Printf("Snapshot: %s\n", snap.Name)
	fmt.Printf("  Environment: %s\n", snap.EnvName)
	fmt.Printf("  Created: %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	if snap.Description != "" {
		fmt.Printf("  Description: %s\n", snap.Description)
	}
	fmt.Printf("  Packages: %d\n", snap.Packages)
	fmt.Printf("  Freeze size: %s\n", formatSize(snap.Size))
	if size, err := mgr.FileSize(entry.Name, name); err == nil {
		fmt.Printf("  Compressed size: %s\n", formatSize(size))
	}
	if snap.Checksum != "" {
		fmt.Printf("  Checksum: %s\n", snap.Checksum[:16])
	}

	if err := mgr.Verify(entry.Name, name); err != nil {
		fmt.Printf("  Integrity: FAILED (%v)\n", err)
	} else {
		fmt.Println("  Integrity: OK")
	}

	return nil
}
