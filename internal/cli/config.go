package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/javanstorm/pyshell/internal/config"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Interactive config editor",
	Long: `Open an interactive editor for the global configuration.

These settings apply to every environment unless the project's
pyshell.toml overrides them. Changes are saved on quit and take effect
on the next pyshell command.

For scripting, use the subcommands instead:
  pyshell config get toolkit
  pyshell config set toolkit qt`,
	RunE: runConfig,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !config.IsKnownKey(key) {
			return fmt.Errorf("unknown config key %q, available: %v", key, config.Keys())
		}
		fmt.Println(config.Value(key))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveValue(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if path := config.ConfigFileUsed(); path != "" {
			fmt.Println(path)
			return nil
		}
		paths, err := config.GetPaths()
		if err != nil {
			return err
		}
		fmt.Printf("%s (not created yet)\n", paths.ConfigFile)
		return nil
	},
}

func init() {
	// Add subcommands
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	// Edit a copy; nothing is written until the user quits
	cfg := &config.Config{}
	if config.Global != nil {
		*cfg = *config.Global
	} else {
		*cfg = *config.DefaultConfig()
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		// Display current configuration
		fmt.Println()
		fmt.Println("pyshell Configuration")
		fmt.Println("=====================")
		fmt.Println()

		configPath := config.ConfigFileUsed()
		if configPath == "" {
			if paths, err := config.GetPaths(); err == nil {
				configPath = paths.ConfigFile + " (not created yet)"
			}
		}
		fmt.Printf("Config file: %s\n", configPath)
		fmt.Println()

		pythonDisplay := cfg.DefaultPython
		if pythonDisplay == "" {
			pythonDisplay = "(newest)"
		}
		shellDisplay := cfg.Shell
		if shellDisplay == "" {
			shellDisplay = "(from $SHELL)"
		}
		fmt.Printf("1. Default Python: %s\n", pythonDisplay)
		fmt.Printf("2. Toolkit: %s\n", cfg.Toolkit)
		fmt.Printf("3. Venv Dir: %s\n", cfg.VenvDir)
		fmt.Printf("4. Manifest: %s\n", cfg.Manifest)
		fmt.Printf("5. Shell: %s\n", shellDisplay)
		fmt.Printf("6. Quiet: %s\n", formatBool(cfg.Quiet))
		fmt.Printf("7. GUI Width: %d\n", cfg.GUIWidth)
		fmt.Printf("8. GUI Height: %d\n", cfg.GUIHeight)
		fmt.Println()

		fmt.Print("Enter number to change (or 'q' to quit): ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		if input == "q" || input == "quit" {
			// Save and exit
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Println("Configuration saved.")
			return nil
		}

		switch input {
		case "1":
			cfg.DefaultPython = editPython(reader, cfg.DefaultPython)
		case "2":
			cfg.Toolkit = editToolkit(reader, cfg.Toolkit)
		case "3":
			cfg.VenvDir = editVenvDir(reader, cfg.VenvDir)
		case "4":
			cfg.Manifest = editString(reader, "Manifest", cfg.Manifest, false)
		case "5":
			cfg.Shell = editString(reader, "Shell", cfg.Shell, true)
		case "6":
			cfg.Quiet = editBool(reader, "Quiet", cfg.Quiet)
		case "7":
			cfg.GUIWidth = editInt(reader, "GUI Width", cfg.GUIWidth, 400, 7680)
		case "8":
			cfg.GUIHeight = editInt(reader, "GUI Height", cfg.GUIHeight, 300, 4320)
		default:
			fmt.Println("Invalid selection.")
		}
	}
}

// formatBool formats a boolean for display.
func formatBool(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// editString prompts for a string value. Empty input keeps the current
// value; '-' clears it when allowed.
func editString(reader *bufio.Reader, name, current string, allowClear bool) string {
	display := current
	if display == "" {
		display = "(unset)"
	}
	fmt.Printf("%s [%s]: ", name, display)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}
	if input == "-" {
		if !allowClear {
			fmt.Printf("%s cannot be empty, keeping current value.\n", name)
			return current
		}
		fmt.Printf("Cleared %s.\n", name)
		return ""
	}
	fmt.Printf("Updated %s to %s.\n", name, input)
	return input
}

// editPython prompts for an interpreter pin with validation. '-' clears
// the pin so the newest interpreter wins.
func editPython(reader *bufio.Reader, current string) string {
	display := current
	if display == "" {
		display = "(newest)"
	}
	fmt.Printf("Default Python [%s]: ", display)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}
	if input == "-" {
		fmt.Println("Cleared Default Python.")
		return ""
	}
	if err := (interpreter.Spec{Pin: input}).Validate(); err != nil {
		fmt.Printf("%v, keeping current value.\n", err)
		return current
	}
	fmt.Printf("Updated Default Python to %s.\n", input)
	return input
}

// editToolkit prompts for a toolkit from the registered set.
func editToolkit(reader *bufio.Reader, current string) string {
	fmt.Printf("Toolkit [%s] (one of %v): ", current, toolkit.List())
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}
	id, err := toolkit.ParseID(input)
	if err != nil {
		fmt.Printf("%v, keeping current value.\n", err)
		return current
	}
	fmt.Printf("Updated Toolkit to %s.\n", id)
	return string(id)
}

// editVenvDir prompts for the venv directory name, which must stay
// inside the project.
func editVenvDir(reader *bufio.Reader, current string) string {
	fmt.Printf("Venv Dir [%s]: ", current)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}
	if filepath.IsAbs(input) {
		fmt.Println("Venv dir must be relative to the project root, keeping current value.")
		return current
	}
	fmt.Printf("Updated Venv Dir to %s.\n", input)
	return input
}

// editInt prompts for an integer value with validation.
func editInt(reader *bufio.Reader, name string, current, min, max int) int {
	fmt.Printf("%s [%d]: ", name, current)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return current
	}

	value, err := strconv.Atoi(input)
	if err != nil {
		fmt.Println("Invalid number, keeping current value.")
		return current
	}

	if value < min || value > max {
		fmt.Printf("Value must be between %d and %d, keeping current value.\n", min, max)
		return current
	}

	fmt.Printf("Updated %s to %d.\n", name, value)
	return value
}

// editBool prompts for a boolean value.
func editBool(reader *bufio.Reader, name string, current bool) bool {
	currentStr := "n"
	if current {
		currentStr = "y"
	}

	fmt.Printf("%s (y/n) [%s]: ", name, currentStr)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))

	if input == "" {
		return current
	}

	value := input == "y" || input == "yes" || input == "true" || input == "1"
	fmt.Printf("Updated %s to %s.\n", name, formatBool(value))
	return value
}
