package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/host"
	"github.com/javanstorm/pyshell/internal/timing"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
	"github.com/spf13/cobra"
)

// Warm setup timing targets (PYSHELL_TIMING=1):
// When the venv exists and the manifest is unchanged (warm path):
//   - config:      <20ms   (merge global config and pyshell.toml)
//   - locate:      <10ms   (read interpreter back from pyvenv.cfg)
//   - create_venv: <1ms    (venv present, nothing to do)
//   - manifest:    <30ms   (fingerprint comparison, no install)
//   - TOTAL:       <100ms
//
// Cold path (first run) adds: interpreter discovery, venv creation,
// toolkit binding install, manifest install.
// Run with PYSHELL_TIMING=1 to see the actual breakdown.

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the project environment",
	Long: `Provision a Python environment for the current project directory.

This command:
1. Resolves a host interpreter (honoring any version pin)
2. Verifies the GUI toolkit bindings are available
3. Creates the virtual environment if it doesn't exist
4. Installs the dependency manifest when present
5. Registers the project so other commands find it

Running setup again is cheap: an existing environment is never
recreated, and the manifest is only reinstalled when it changed.`,
	RunE: runSetup,
}

var (
	setupPython    string
	setupToolkit   string
	setupForce     bool
	setupNoInstall bool
	setupQuiet     bool
)

func init() {
	setupCmd.Flags().StringVarP(&setupPython, "python", "p", "", "Interpreter version pin, e.g. 3.12 (default from config)")
	setupCmd.Flags().StringVarP(&setupToolkit, "toolkit", "t", "", "GUI toolkit to wire up (default from config)")
	setupCmd.Flags().BoolVarP(&setupForce, "force", "f", false, "Recreate the environment from scratch")
	setupCmd.Flags().BoolVar(&setupNoInstall, "no-install", false, "Skip installing the dependency manifest")
	setupCmd.Flags().BoolVarP(&setupQuiet, "quiet", "q", false, "Only print errors and the interpreter version")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Initialize timing if PYSHELL_TIMING=1
	var timer *timing.Timer
	if os.Getenv("PYSHELL_TIMING") == "1" {
		timer = timing.New()
	}

	cfg := config.Global
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if setupQuiet || cfg.Quiet {
		SetQuietMode(true)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}

	proj, err := config.LoadProject(cwd)
	if err != nil {
		return err
	}
	settings := config.Effective(cfg, proj, cwd)

	// Flags override both global config and pyshell.toml
	if setupPython != "" {
		settings.Python = setupPython
	}
	if setupToolkit != "" {
		settings.Toolkit = setupToolkit
	}

	warnings := config.ValidateSettings(settings)
	if len(warnings) > 0 {
		fmt.Fprint(os.Stderr, config.FormatValidationErrors(warnings))
		if config.HasFatal(warnings) {
			return fmt.Errorf("configuration invalid")
		}
	}

	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("determine paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	registry := env.NewRegistry(paths.DataDir)
	entry, err := registry.EnsureProject(cwd, settings.Python, settings.Toolkit, settings.VenvDir)
	if err != nil {
		return err
	}
	if timer != nil {
		timer.Mark("config")
	}

	provider, err := toolkit.Get(toolkit.ID(settings.Toolkit))
	if err != nil {
		return err
	}

	mgr, err := env.NewManager(env.ManagerConfig{
		Name:       entry.Name,
		ProjectDir: cwd,
		DataDir:    registry.DataDir(entry.Name),
		VenvDir:    settings.VenvDir,
		Manifest:   settings.Manifest,
		Python:     settings.Python,
		Env:        settings.Env,
		Links:      settings.Links,
		Provider:   provider,
		Timer:      timer,
	})
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	printIfNotQuiet("Setting up environment '%s' (toolkit: %s)\n", entry.Name, provider.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if setupForce {
		printlnIfNotQuiet("Recreating environment...")
		err = mgr.Recreate(ctx)
	} else {
		err = mgr.Setup(ctx)
	}
	if err != nil {
		return setupHint(err, provider)
	}

	if setupNoInstall {
		printlnIfNotQuiet("Skipping dependency install (--no-install).")
	} else {
		result, syncErr := mgr.Sync(ctx, setupForce)
		if syncErr != nil {
			return syncErr
		}
		switch result {
		case env.SyncInstalled:
			printIfNotQuiet("Installed dependencies from %s\n", settings.Manifest)
		case env.SyncUpToDate:
			printlnIfNotQuiet("Dependencies already up to date.")
		case env.SyncSkipped:
			printIfNotQuiet("No %s found, skipping dependency install.\n", settings.Manifest)
		}
	}

	py, err := mgr.Python()
	if err != nil {
		return err
	}
	fmt.Printf("Python %s\n", py.Version)
	printIfNotQuiet("Environment ready: %s\n", settings.VenvPath())

	if timer != nil {
		timer.Report(os.Stderr)
	}

	return nil
}

// setupHint decorates provisioning failures with the host package
// command that would fix them.
func setupHint(err error, provider toolkit.Provider) error {
	dm := host.NewDependencyManager()

	var missing *env.MissingToolkitError
	if errors.As(err, &missing) {
		if pkgs := dm.ToolkitPackages(provider); len(pkgs) > 0 {
			fmt.Fprintf(os.Stderr, "\nThe %s toolkit is not available to %s.\n", provider.Name(), missing.Python)
			fmt.Fprintf(os.Stderr, "Install it with:\n  %s\n", dm.InstallCommand(pkgs))
			fmt.Fprintln(os.Stderr, "or run: pyshell status --install")
		}
		return err
	}

	if errors.Is(err, interpreter.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "\nNo usable Python interpreter found on this host.")
		fmt.Fprintf(os.Stderr, "Install one with:\n  %s\n", dm.PythonInstallHint())
		return err
	}

	return err
}
