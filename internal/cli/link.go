package cli

import (
	"fmt"
	"path/filepath"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link external directories into the environment",
	Long: `Link directories of Python code into the environment without
installing them.

Linked directories are recorded in a path file inside the venv's
site-packages, so the interpreter picks them up at startup. Useful for
working on a local library next to the app that imports it.`,
}

var linkAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Link a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkAdd,
}

var linkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List linked directories",
	RunE:  runLinkList,
}

var linkRemoveCmd = &cobra.Command{
	Use:   "remove <dir>",
	Short: "Unlink a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkRemove,
}

var linkClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all links",
	RunE:  runLinkClear,
}

var linkEnvName string

func init() {
	linkCmd.PersistentFlags().StringVar(&linkEnvName, "env", "", "Environment to operate on (default: current directory or active)")

	// Add subcommands
	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkRemoveCmd)
	linkCmd.AddCommand(linkClearCmd)

	rootCmd.AddCommand(linkCmd)
}

// getLinks resolves the target environment's path file manager. The
// venv must exist because the file lives inside its site-packages.
func getLinks() (env.Links, error) {
	registry, err := getRegistry()
	if err != nil {
		return env.Links{}, err
	}
	entry, err := resolveEntry(registry, linkEnvName)
	if err != nil {
		return env.Links{}, err
	}

	venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}
	if !venv.Exists() {
		return env.Links{}, env.ErrNotSetup
	}
	site, err := venv.SitePackages()
	if err != nil {
		return env.Links{}, err
	}
	return env.Links{SitePackages: site}, nil
}

func runLinkAdd(cmd *cobra.Command, args []string) error {
	links, err := getLinks()
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := links.Add(dir); err != nil {
		return err
	}
	fmt.Printf("Linked %s\n", dir)
	return nil
}

func runLinkList(cmd *cobra.Command, args []string) error {
	links, err := getLinks()
	if err != nil {
		return err
	}

	dirs, err := links.List()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		fmt.Println("No linked directories. Add one with: pyshell link add <dir>")
		return nil
	}

	fmt.Printf("Linked directories (%s):\n", links.Path())
	for _, dir := range dirs {
		fmt.Printf("  %s\n", dir)
	}
	return nil
}

func runLinkRemove(cmd *cobra.Command, args []string) error {
	links, err := getLinks()
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := links.Remove(dir); err != nil {
		return err
	}
	fmt.Printf("Unlinked %s\n", dir)
	return nil
}

func runLinkClear(cmd *cobra.Command, args []string) error {
	links, err := getLinks()
	if err != nil {
		return err
	}

	if err := links.Clear(); err != nil {
		return err
	}
	fmt.Println("Removed all links")
	return nil
}
