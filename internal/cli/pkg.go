package cli

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/spf13/cobra"
)

var pkgCmd = &cobra.Command{
	Use:   "pkg",
	Short: "Package management inside the environment",
	Long:  `Install, remove, inspect, and list packages in the environment's venv via pip.`,
}

var pkgInstallCmd = &cobra.Command{
	Use:   "install <packages...>",
	Short: "Install packages",
	Long: `Install packages into the venv using pip.

Packages installed here are not added to the manifest; edit the
manifest and run 'pyshell sync' for dependencies the project should
keep.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPkgInstall,
}

var pkgUninstallCmd = &cobra.Command{
	Use:   "uninstall <packages...>",
	Short: "Uninstall packages",
	Long:  `Remove packages from the venv using pip.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPkgUninstall,
}

var pkgListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long:  `List all packages installed in the venv.`,
	RunE:  runPkgList,
}

var pkgShowCmd = &cobra.Command{
	Use:   "show <package>",
	Short: "Show package details",
	Long:  `Show metadata for an installed package.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPkgShow,
}

var pkgFreezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Print installed packages in requirements format",
	Long: `Print the installed package set in requirements format, suitable for
redirecting into the manifest.`,
	RunE: runPkgFreeze,
}

var pkgEnvName string

func init() {
	// Add --env flag to all pkg commands
	pkgCmd.PersistentFlags().StringVar(&pkgEnvName, "env", "", "Environment to target (default: current directory or active)")

	// Add subcommands
	pkgCmd.AddCommand(pkgInstallCmd)
	pkgCmd.AddCommand(pkgUninstallCmd)
	pkgCmd.AddCommand(pkgListCmd)
	pkgCmd.AddCommand(pkgShowCmd)
	pkgCmd.AddCommand(pkgFreezeCmd)

	// Register pkg command
	rootCmd.AddCommand(pkgCmd)
}

// runVenvPip runs a pip command against the environment's venv with
// full terminal control.
func runVenvPip(pipArgs ...string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, pkgEnvName)
	if err != nil {
		return err
	}

	venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}
	if !venv.Exists() {
		return env.ErrNotSetup
	}

	args := append([]string{"-m", "pip"}, pipArgs...)
	pip := exec.Command(venv.Python(), args...)
	pip.Stdin = os.Stdin
	pip.Stdout = os.Stdout
	pip.Stderr = os.Stderr

	// Run and return any error
	if err := pip.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return err
	}

	return nil
}

func runPkgInstall(cmd *cobra.Command, args []string) error {
	pipArgs := append([]string{"install"}, args...)
	return runVenvPip(pipArgs...)
}

func runPkgUninstall(cmd *cobra.Command, args []string) error {
	pipArgs := append([]string{"uninstall", "-y"}, args...)
	return runVenvPip(pipArgs...)
}

func runPkgList(cmd *cobra.Command, args []string) error {
	return runVenvPip("list")
}

func runPkgShow(cmd *cobra.Command, args []string) error {
	return runVenvPip("show", args[0])
}

func runPkgFreeze(cmd *cobra.Command, args []string) error {
	return runVenvPip("freeze")
}
