package cli

import (
	"context"
	"fmt"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print shell code that activates the environment",
	Long: `Print eval-able POSIX shell code exporting the activation environment.

Use it to activate the environment in the current shell instead of a
subshell:

  eval "$(pyshell export)"
  eval "$(pyshell export --deactivate)"

Only the script goes to stdout; diagnostics go to stderr. The
environment must already be set up, so prompt hooks never trigger a
provisioning run.`,
	RunE: runExport,
}

var (
	exportDeactivate bool
	exportEnvName    string
)

func init() {
	exportCmd.Flags().BoolVar(&exportDeactivate, "deactivate", false, "Print the code that undoes a previous export")
	exportCmd.Flags().StringVar(&exportEnvName, "env", "", "Environment to export (default: current directory or active)")
}

func runExport(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, exportEnvName)
	if err != nil {
		return err
	}

	mgr, _, err := managerFor(registry, entry)
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

	activation, err := mgr.Activation()
	if err != nil {
		return err
	}

	if exportDeactivate {
		fmt.Print(activation.DeactivateScript())
	} else {
		fmt.Print(activation.Script())
	}

	return nil
}
