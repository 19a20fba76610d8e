package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/host"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached data",
	Long: `Inspect disk usage of environments and clear recomputable caches.

Clearing covers recorded setup state (rebuilt on the next setup) and,
with --pip, pip's download cache. Venvs and snapshots are never touched;
use 'pyshell reset' and 'pyshell snapshot delete' for those.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [env]",
	Short: "Clear cached state",
	Long: `Clear the recorded setup state for one environment or all of them.
The next setup re-verifies the interpreter and manifest from scratch.

Examples:
  pyshell cache clear          # Clear state for all environments
  pyshell cache clear app      # Clear only the 'app' environment
  pyshell cache clear --pip    # Also purge pip's download cache`,
	RunE: runCacheClear,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show disk usage of environments and caches",
	RunE:  runCacheList,
}

var cacheClearPip bool

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearPip, "pip", false, "Also purge pip's download cache")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheListCmd)

	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}
	entries, err := registry.List()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		// Clear specific environment
		entry, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		entries = []env.Entry{*entry}
	}

	cleared := 0
	for _, entry := range entries {
		stateFile := env.NewStateFile(registry.DataDir(entry.Name))
		if err := stateFile.Reset(); err != nil {
			fmt.Printf("Warning: %s: %v\n", entry.Name, err)
			continue
		}
		cleared++
	}
	if cleared > 0 {
		fmt.Printf("Cleared setup state for %d environment(s); the next setup re-verifies everything.\n", cleared)
	} else {
		fmt.Println("No setup state to clear")
	}

	if cacheClearPip {
		return purgePipCache(cmd.Context(), entries)
	}
	return nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	registry, err := getRegistry()
	if err != nil {
		return err
	}
	entries, err := registry.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No environments registered")
		return nil
	}

	fmt.Println("Disk usage:")

	var totalSize int64
	for _, entry := range entries {
		venvDir := filepath.Join(entry.Root, entry.VenvDir)
		venvSize, _ := dirSize(venvDir)
		dataSize, _ := dirSize(registry.DataDir(entry.Name))
		fmt.Printf("  %s: venv %s, data %s\n", entry.Name, formatSize(venvSize), formatSize(dataSize))
		totalSize += venvSize + dataSize
	}
	fmt.Printf("\nTotal: %s\n", formatSize(totalSize))

	// pip's cache is shared across venvs; ask any set-up environment
	// where it lives
	if dir := pipCacheDir(cmd.Context(), entries); dir != "" {
		size, _ := dirSize(dir)
		fmt.Printf("pip cache: %s (%s)\n", dir, formatSize(size))
	}

	return nil
}

// pipCacheDir asks pip for its cache directory using the first
// environment with a working venv. Returns "" if none is set up.
func pipCacheDir(ctx context.Context, entries []env.Entry) string {
	runner := host.NewExecRunner()
	for _, entry := range entries {
		venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}
		if !venv.Exists() {
			continue
		}
		out, err := host.RunChecked(ctx, runner, venv.Python(), "-m", "pip", "cache", "dir")
		if err != nil {
			continue
		}
		return strings.TrimSpace(string(out))
	}
	return ""
}

func purgePipCache(ctx context.Context, entries []env.Entry) error {
	runner := host.NewExecRunner()
	for _, entry := range entries {
		venv := env.Venv{Dir: filepath.Join(entry.Root, entry.VenvDir)}
		if !venv.Exists() {
			continue
		}
		out, err := host.RunChecked(ctx, runner, venv.Python(), "-m", "pip", "cache", "purge")
		if err != nil {
			return fmt.Errorf("purge pip cache: %w", err)
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			fmt.Println(msg)
		}
		return nil
	}
	fmt.Println("No set-up environment found, pip cache untouched")
	return nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info != nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
