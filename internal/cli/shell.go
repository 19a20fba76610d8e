package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/gui"
	"github.com/javanstorm/pyshell/internal/terminal"
	"github.com/spf13/cobra"
)

// IsLoginShell returns true if invoked as a login shell.
// Login shells are invoked with argv[0] prefixed with '-' by convention.
func IsLoginShell() bool {
	if len(os.Args) == 0 {
		return false
	}
	arg0 := os.Args[0]
	if len(arg0) == 0 {
		return false
	}
	return arg0[0] == '-'
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Enter a shell with the environment active",
	Long: `Start an interactive subshell with the project environment active.

The subshell runs your usual $SHELL with the venv interpreter first on
PATH, toolkit library paths exported and any configured extras applied.
Type 'exit' or press Ctrl+D to leave; press Ctrl+] twice to detach.

With --gui the shell opens in a terminal window instead of the current
terminal.`,
	RunE: runShell,
}

var (
	shellEnvName string
	shellGUI     bool
)

func init() {
	shellCmd.Flags().StringVar(&shellEnvName, "env", "", "Environment to enter (default: current directory or active)")
	shellCmd.Flags().BoolVar(&shellGUI, "gui", false, "Open the shell in a GUI terminal window")
}

// insideDir reports whether dir is root or a descendant of root.
func insideDir(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// userShell resolves the shell to launch: project setting, then
// $SHELL, then /bin/sh.
func userShell(settings config.Settings) string {
	if settings.Shell != "" {
		return settings.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func runShell(cmd *cobra.Command, args []string) error {
	// Load config
	cfg := config.Global
	if cfg == nil {
		// Try loading config if not already loaded (for login-shell invocation)
		if err := config.Load(); err != nil {
			// Use defaults if config fails to load
			cfg = config.DefaultConfig()
		} else {
			cfg = config.Global
		}
	}
	if cfg.Quiet {
		SetQuietMode(true)
	}

	if shellGUI && !config.HasDisplay() {
		return fmt.Errorf("no display server detected; cannot open GUI terminal")
	}

	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, shellEnvName)
	if err != nil {
		return err
	}

	mgr, settings, err := managerFor(registry, entry)
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

	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("determine paths: %w", err)
	}
	if running, pid := sessionActive(paths.DataDir, entry.Name); running {
		printIfNotQuiet("Note: another shell session is active (PID %d).\n", pid)
	}
	if err := writeSessionPID(paths.DataDir, entry.Name); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write session file: %v\n", err)
	}
	defer clearSessionPID(paths.DataDir, entry.Name)

	shellPath := userShell(settings)
	child := exec.Command(shellPath)
	child.Env = activation.Environ(os.Environ())

	// Sessions started from outside the project begin at its root
	if cwd, err := os.Getwd(); err != nil || !insideDir(entry.Root, cwd) {
		child.Dir = entry.Root
	}

	if py, err := mgr.Python(); err == nil {
		printIfNotQuiet("Entering '%s' (Python %s). Type 'exit' to leave.\n", entry.Name, py.Version)
	}

	if shellGUI {
		return runShellGUI(cfg, entry.Name, child)
	}

	con := terminal.Current()
	if !con.IsTTY() {
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Run(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				clearSessionPID(paths.DataDir, entry.Name)
				os.Exit(exitErr.ExitCode())
			}
			return fmt.Errorf("run %s: %w", shellPath, err)
		}
		return nil
	}

	ptmx, err := pty.Start(child)
	if err != nil {
		return fmt.Errorf("start %s: %w", shellPath, err)
	}
	defer ptmx.Close()

	// Setup signal handler for interrupts arriving outside the session
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Attach in background
	attachDone := make(chan error, 1)
	go func() {
		attachDone <- con.Attach(ctx, ptmx, ptmx, func(width, height int) {
			pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
		})
	}()

	// Wait for either signal or attach completion
	select {
	case <-sigCh:
		cancel()
		child.Process.Kill()
	case err := <-attachDone:
		if errors.Is(err, terminal.ErrDetached) {
			printlnIfNotQuiet("\nDetached, shell terminated.")
			child.Process.Kill()
		} else if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Attach error: %v\n", err)
		}
	}

	child.Wait()

	return nil
}

// runShellGUI hosts the subshell in a terminal window.
func runShellGUI(cfg *config.Config, envName string, child *exec.Cmd) error {
	ptmx, err := pty.Start(child)
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	defer ptmx.Close()

	pty.Setsize(ptmx, &pty.Winsize{Rows: 30, Cols: 100})

	title := fmt.Sprintf("pyshell - %s", envName)
	gui.RunTerminal(ptmx, ptmx, title, float32(cfg.GUIWidth), float32(cfg.GUIHeight), func() {
		child.Process.Kill()
	})

	// Window closed without triggering onClose still ends the shell
	child.Process.Kill()
	child.Wait()

	return nil
}

// RunShellMode runs pyshell as a login shell.
// This is called from main.go when detected as login shell.
func RunShellMode() {
	if err := runShell(nil, nil); err != nil {
		fmt.Fprintf(os.Stderr, "pyshell: %v\n", err)
		os.Exit(1)
	}
}
