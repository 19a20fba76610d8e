package cli

import (
	"context"
	"fmt"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Install the dependency manifest",
	Long: `Install the project's dependency manifest into the environment.

Without --force the manifest is only installed when its content changed
since the last sync. A project without a manifest is left untouched.`,
	RunE: runSync,
}

var (
	syncForce   bool
	syncEnvName string
)

func init() {
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "Reinstall even if the manifest is unchanged")
	syncCmd.Flags().StringVar(&syncEnvName, "env", "", "Environment to sync (default: current directory or active)")
}

func runSync(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, syncEnvName)
	if err != nil {
		return err
	}

	mgr, settings, err := managerFor(registry, entry)
	if err != nil {
		return err
	}
	if !mgr.Venv().Exists() {
		return env.ErrNotSetup
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Setup(ctx); err != nil {
		return err
	}

	result, err := mgr.Sync(ctx, syncForce)
	if err != nil {
		return err
	}

	switch result {
	case env.SyncInstalled:
		fmt.Printf("Installed dependencies from %s\n", settings.Manifest)
	case env.SyncUpToDate:
		fmt.Println("Dependencies already up to date (use --force to reinstall).")
	case env.SyncSkipped:
		fmt.Printf("No %s found, nothing to install.\n", settings.Manifest)
	}

	return nil
}
