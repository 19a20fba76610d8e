package cli

import (
	"fmt"
	"path/filepath"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/spf13/cobra"
)

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "Manage registered environments",
	Long: `List, inspect, and switch between the project environments this host
knows about. Environments are registered by 'pyshell setup'.`,
}

var envsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	Long:  `List all registered environments, marking the active one with *.`,
	RunE:  runEnvsList,
}

var envsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active environment",
	Long:  `Set the environment other commands fall back to when run outside a project directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvsUse,
}

var envsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show environment details",
	Long:  `Show details for an environment. If no name is specified, shows the active one.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnvsShow,
}

var envsForgetCmd = &cobra.Command{
	Use:   "forget <name>",
	Short: "Remove an environment from the registry",
	Long: `Remove an environment from the registry. The project directory and its
venv are left alone; use --data to also delete pyshell's state and
snapshots for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvsForget,
}

var envsForgetData bool

func init() {
	envsForgetCmd.Flags().BoolVar(&envsForgetData, "data", false, "Also delete environment data (state, snapshots)")

	// Add subcommands
	envsCmd.AddCommand(envsListCmd)
	envsCmd.AddCommand(envsUseCmd)
	envsCmd.AddCommand(envsShowCmd)
	envsCmd.AddCommand(envsForgetCmd)

	// Register envs command
	rootCmd.AddCommand(envsCmd)
}

func runEnvsList(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	entries, err := registry.List()
	if err != nil {
		return fmt.Errorf("list environments: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No environments found. Register one with: pyshell setup")
		return nil
	}

	active, _ := registry.GetActive()

	fmt.Println("Environments:")
	for _, entry := range entries {
		marker := " "
		if entry.Name == active {
			marker = "*"
		}
		line := fmt.Sprintf("  %s %s (%s", marker, entry.Name, entry.Toolkit)
		if entry.Python != "" {
			line += ", python " + entry.Python
		}
		fmt.Printf("%s) %s\n", line, entry.Root)
	}

	return nil
}

func runEnvsUse(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	if err := registry.SetActive(args[0]); err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	fmt.Printf("Active environment set to '%s'\n", args[0])
	return nil
}

func runEnvsShow(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		name, err = registry.GetActive()
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Println("No active environment. Specify a name or use: pyshell envs use <name>")
			return nil
		}
	}

	entry, err := registry.Get(name)
	if err != nil {
		return err
	}

	active, _ := registry.GetActive()
	activeMarker := ""
	if entry.Name == active {
		activeMarker = " (active)"
	}

	venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}

	fmt.Printf("Environment: %s%s\n", entry.Name, activeMarker)
	fmt.Printf("  Root: %s\n", entry.Root)
	fmt.Printf("  Toolkit: %s\n", entry.Toolkit)
	if entry.Python != "" {
		fmt.Printf("  Python pin: %s\n", entry.Python)
	}
	if ver, err := venv.Version(); err == nil {
		fmt.Printf("  Python: %s\n", ver)
	}
	fmt.Printf("  Venv: %s\n", venv.Dir)
	fmt.Printf("  Created: %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Data Dir: %s\n", registry.DataDir(entry.Name))

	return nil
}

func runEnvsForget(cmd *cobra.Command, args []string) error {
	name := args[0]

	registry, err := getRegistry()
	if err != nil {
		return err
	}

	// Check the environment exists
	if _, err := registry.Get(name); err != nil {
		return err
	}

	// Delete environment data if requested
	if envsForgetData {
		if err := registry.DeleteData(name); err != nil {
			fmt.Printf("Warning: failed to delete environment data: %v\n", err)
		} else {
			fmt.Printf("Deleted data for '%s'\n", name)
		}
	}

	if err := registry.Remove(name); err != nil {
		return fmt.Errorf("forget environment: %w", err)
	}

	fmt.Printf("Forgot environment '%s'\n", name)

	if !envsForgetData {
		fmt.Println("Note: state and snapshots still exist. Use --data to delete them.")
	}

	return nil
}
