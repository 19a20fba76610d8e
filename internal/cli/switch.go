package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch [version]",
	Short: "Switch the environment to another interpreter",
	Long: `Re-pin the environment's Python interpreter.

Without an argument this shows the interpreters found on the host and
lets you pick one. The venv is recreated from the selected interpreter
and the dependency manifest is reinstalled into it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitch,
}

func init() {
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entry, err := resolveEntry(registry, "")
	if err != nil {
		return err
	}

	venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}

	// Show current interpreter
	current := ""
	if ver, err := venv.Version(); err == nil {
		current = ver.String()
		fmt.Printf("Current interpreter: Python %s\n", current)
	} else if entry.Python != "" {
		current = entry.Python
		fmt.Printf("Current interpreter pin: %s\n", current)
	} else {
		fmt.Println("Current interpreter: none (environment not set up)")
	}
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pin string
	if len(args) > 0 {
		pin = args[0]
		if err := (interpreter.Spec{Pin: pin}).Validate(); err != nil {
			return err
		}
	} else {
		pin, err = selectInterpreter(ctx, current)
		if err != nil {
			return err
		}
		if pin == "" {
			fmt.Println("No changes made.")
			return nil
		}
	}

	// Check if same as current
	if pin == current {
		fmt.Println("Already using this interpreter.")
		return nil
	}

	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("determine paths: %w", err)
	}
	if running, pid := sessionActive(paths.DataDir, entry.Name); running {
		fmt.Printf("Warning: a shell session is active (PID %d).\n", pid)
		fmt.Println("Close it first; switching recreates the venv underneath it.")
		return fmt.Errorf("session active")
	}

	fmt.Printf("Switching to Python %s recreates the venv and reinstalls the manifest.\n", pin)
	if !promptYesNo("Continue?", true) {
		fmt.Println("Cancelled.")
		return nil
	}

	provider, err := toolkit.Get(toolkit.ID(entry.Toolkit))
	if err != nil {
		return err
	}

	proj, err := config.LoadProject(entry.Root)
	if err != nil {
		return err
	}
	settings := config.Effective(config.Global, proj, entry.Root)

	mgr, err := env.NewManager(env.ManagerConfig{
		Name:       entry.Name,
		ProjectDir: entry.Root,
		DataDir:    registry.DataDir(entry.Name),
		VenvDir:    entry.VenvDir,
		Manifest:   settings.Manifest,
		Python:     pin,
		Env:        settings.Env,
		Links:      settings.Links,
		Provider:   provider,
	})
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	fmt.Println("Recreating environment...")
	if err := mgr.Recreate(ctx); err != nil {
		return setupHint(err, provider)
	}

	if result, err := mgr.Sync(ctx, true); err != nil {
		return err
	} else if result == env.SyncInstalled {
		fmt.Printf("Reinstalled dependencies from %s\n", settings.Manifest)
	}

	if err := registry.SetPython(entry.Name, pin); err != nil {
		return err
	}

	py, err := mgr.Python()
	if err != nil {
		return err
	}
	fmt.Printf("\nSwitched to Python %s.\n", py.Version)

	return nil
}

// selectInterpreter shows a numbered menu of host interpreters and
// returns the chosen version, or "" when the user backs out.
func selectInterpreter(ctx context.Context, current string) (string, error) {
	locator, err := interpreter.NewLocator()
	if err != nil {
		return "", err
	}

	pythons, err := locator.Discover(ctx)
	if err != nil {
		return "", fmt.Errorf("discover interpreters: %w", err)
	}
	if len(pythons) == 0 {
		return "", fmt.Errorf("no interpreters found on this host")
	}

	fmt.Println("Available interpreters:")
	for i, py := range pythons {
		marker := ""
		if py.Version.String() == current {
			marker = " (current)"
		}
		fmt.Printf("  %d. Python %s (%s)%s\n", i+1, py.Version, py.Path, marker)
	}

	fmt.Print("\nSelect interpreter (or 'q' to quit): ")
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "q" || input == "quit" || input == "" {
		return "", nil
	}

	var choice int
	if _, err := fmt.Sscanf(input, "%d", &choice); err != nil || choice < 1 || choice > len(pythons) {
		return "", fmt.Errorf("invalid selection %q", input)
	}

	return pythons[choice-1].Version.String(), nil
}
