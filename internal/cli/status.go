package cli

import (
	"context"
	"fmt"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/host"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show host and environment status",
	Long: `Display what pyshell can see on this host (interpreters, toolkit
libraries, package manager) and the state of the project environment
(venv, interpreter, manifest, sessions, snapshots).`,
	RunE: runStatus,
}

var (
	statusEnvName string
	statusInstall bool
)

func init() {
	statusCmd.Flags().StringVar(&statusEnvName, "env", "", "Environment to report on (default: current directory or active)")
	statusCmd.Flags().BoolVar(&statusInstall, "install", false, "Install missing host packages (may use sudo)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dm := host.NewDependencyManager()
	fmt.Printf("Host: %s (%s)\n", dm.HostOS(), dm.PackageManager())
	if !config.HasDisplay() {
		fmt.Println("  No display server detected; GUI applications will not start.")
	}

	locator, err := interpreter.NewLocator()
	if err != nil {
		fmt.Printf("Interpreters: unavailable (%v)\n", err)
	} else if pythons, err := locator.Discover(ctx); err != nil || len(pythons) == 0 {
		fmt.Println("Interpreters: none found")
		fmt.Printf("  Install one with: %s\n", dm.PythonInstallHint())
	} else {
		fmt.Println("Interpreters:")
		for _, py := range pythons {
			fmt.Printf("  %s  %s\n", py.Version, py.Path)
		}
	}

	fmt.Println()

	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, statusEnvName)
	if err != nil {
		fmt.Println("Environment: none (run 'pyshell setup' in a project directory)")
		return nil
	}

	mgr, _, err := managerFor(registry, entry)
	if err != nil {
		return err
	}

	st, err := mgr.Status()
	if err != nil {
		return fmt.Errorf("inspect environment: %w", err)
	}

	active, _ := registry.GetActive()
	activeMarker := ""
	if entry.Name == active {
		activeMarker = " (active)"
	}
	fmt.Printf("Environment: %s%s\n", st.Name, activeMarker)
	fmt.Printf("  Root: %s\n", st.Root)

	provider := mgr.Provider()
	if _, err := provider.EnvVars(toolkit.Host{}); err != nil {
		fmt.Printf("  Toolkit: %s (libraries missing: %v)\n", st.Toolkit, err)
		if pkgs := dm.ToolkitPackages(provider); len(pkgs) > 0 && !statusInstall {
			fmt.Printf("    Install with: %s\n", dm.InstallCommand(pkgs))
		}
	} else {
		fmt.Printf("  Toolkit: %s\n", st.Toolkit)
	}

	if st.VenvExists {
		fmt.Printf("  Venv: %s\n", st.VenvPath)
		if st.PythonVersion != "" {
			line := fmt.Sprintf("  Python: %s", st.PythonVersion)
			if st.PythonPath != "" {
				line += fmt.Sprintf(" (from %s)", st.PythonPath)
			}
			fmt.Println(line)
		}
	} else {
		fmt.Println("  Venv: not created (run 'pyshell setup')")
	}

	switch {
	case !st.HasManifest:
		fmt.Printf("  Manifest: none (%s not found)\n", st.ManifestPath)
	case st.ManifestStale:
		fmt.Printf("  Manifest: changed since last sync, %d packages (run 'pyshell sync')\n", st.Packages)
	default:
		fmt.Printf("  Manifest: in sync, %d packages\n", st.Packages)
	}

	if p := st.Persistent; p != nil && p.SetupCount > 0 {
		fmt.Printf("  Setup runs: %d\n", p.SetupCount)
		if !p.LastSetup.IsZero() {
			fmt.Printf("  Last setup: %s\n", p.LastSetup.Format("2006-01-02 15:04:05"))
		}
		if !p.LastSync.IsZero() {
			fmt.Printf("  Last sync: %s\n", p.LastSync.Format("2006-01-02 15:04:05"))
		}
		if !p.CleanSetup {
			fmt.Println("  Last setup did not complete cleanly")
		}
	}

	paths, err := config.GetPaths()
	if err == nil {
		if running, pid := sessionActive(paths.DataDir, entry.Name); running {
			fmt.Printf("  Session: active (PID %d)\n", pid)
		}
		snaps := env.NewSnapshotManager(paths.DataDir, host.NewExecRunner())
		if list, err := snaps.List(entry.Name); err == nil && len(list) > 0 {
			fmt.Printf("  Snapshots: %d\n", len(list))
		}
	}

	if statusInstall {
		fmt.Println()
		fmt.Println("Installing host dependencies...")
		if err := host.EnsurePythonDeps(); err != nil {
			return fmt.Errorf("install python: %w", err)
		}
		if err := dm.InstallToolkit(provider); err != nil {
			return fmt.Errorf("install %s packages: %w", provider.Name(), err)
		}
		fmt.Println("Host dependencies installed.")
	}

	return nil
}
