package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/spf13/cobra"
)

// quietMode suppresses verbose output when running as login shell.
var quietMode bool

// SetQuietMode enables or disables quiet mode (minimal output).
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// printIfNotQuiet prints only when not in quiet mode.
func printIfNotQuiet(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

// printlnIfNotQuiet prints a line only when not in quiet mode.
func printlnIfNotQuiet(args ...interface{}) {
	if !quietMode {
		fmt.Println(args...)
	}
}

// sessionActive checks if a shell session already runs for the environment.
func sessionActive(baseDir, envName string) (bool, int) {
	pidFile := filepath.Join(baseDir, "data", envName, "session.pid")
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return false, 0
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return false, 0
	}
	// Check if process is running
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return false, 0
	}
	return true, pid
}

// writeSessionPID creates a session PID file for the current process.
func writeSessionPID(baseDir, envName string) error {
	pidFile := filepath.Join(baseDir, "data", envName, "session.pid")
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// clearSessionPID removes the session PID file.
func clearSessionPID(baseDir, envName string) {
	pidFile := filepath.Join(baseDir, "data", envName, "session.pid")
	os.Remove(pidFile)
}

// promptYesNo asks a yes/no question with a default value.
func promptYesNo(question string, defaultYes bool) bool {
	defaultStr := "Y/n"
	if !defaultYes {
		defaultStr = "y/N"
	}

	fmt.Printf("%s [%s]: ", question, defaultStr)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

// getRegistry returns the project registry rooted at the data dir.
func getRegistry() (*env.Registry, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("determine paths: %w", err)
	}
	return env.NewRegistry(paths.DataDir), nil
}

// resolveEntry picks the environment to operate on: the named one,
// else the one registered for the working directory, else the active
// one.
func resolveEntry(registry *env.Registry, name string) (*env.Entry, error) {
	if name != "" {
		return registry.Get(name)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working dir: %w", err)
	}
	if entry, err := registry.GetByRoot(cwd); err == nil {
		return entry, nil
	}
	return registry.GetActiveOrCwd(cwd)
}

// managerFor builds an environment manager for a registry entry,
// merging in any per-project overrides from its root directory. The
// merged settings are returned alongside for callers that need more
// than the manager (shell choice, manifest path).
func managerFor(registry *env.Registry, entry *env.Entry) (*env.Manager, config.Settings, error) {
	provider, err := toolkit.Get(toolkit.ID(entry.Toolkit))
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("toolkit for %s: %w", entry.Name, err)
	}

	proj, err := config.LoadProject(entry.Root)
	if err != nil {
		return nil, config.Settings{}, err
	}
	settings := config.Effective(config.Global, proj, entry.Root)

	mgr, err := env.NewManager(env.ManagerConfig{
		Name:       entry.Name,
		ProjectDir: entry.Root,
		DataDir:    registry.DataDir(entry.Name),
		VenvDir:    entry.VenvDir,
		Manifest:   settings.Manifest,
		Python:     entry.Python,
		Env:        settings.Env,
		Links:      settings.Links,
		Provider:   provider,
	})
	if err != nil {
		return nil, config.Settings{}, err
	}
	return mgr, settings, nil
}

// ensureReady brings the environment up without touching anything that
// is already current: warm setup plus a conditional manifest sync.
func ensureReady(ctx context.Context, mgr *env.Manager) error {
	if err := mgr.Setup(ctx); err != nil {
		return err
	}
	if _, err := mgr.Sync(ctx, false); err != nil {
		return err
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run [--] <command> [args...]",
	Short: "Run a command inside the environment",
	Long: `Run a single command with the environment active, without starting
an interactive shell.

The command inherits the activated environment: the venv interpreter is
first on PATH, toolkit library paths are exported, and linked
directories are importable.

Examples:
  pyshell run python app.py
  pyshell run -- pytest -x tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var runEnvName string

func init() {
	runCmd.Flags().StringVar(&runEnvName, "env", "", "Environment to use (default: current directory or active)")
}

func runRun(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, runEnvName)
	if err != nil {
		return err
	}

	mgr, _, err := managerFor(registry, entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ensureReady(ctx, mgr); err != nil {
		return err
	}

	activation, err := mgr.Activation()
	if err != nil {
		return err
	}

	child := exec.Command(args[0], args[1:]...)
	child.Env = activation.Environ(os.Environ())
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("run %s: %w", args[0], err)
	}

	return nil
}
