//go:build darwin

package interpreter

import (
	"os"
	"path/filepath"
)

// NewLocator returns the macOS interpreter locator.
// Beyond PATH, it scans Homebrew prefixes, python.org framework installs
// and pyenv shims.
func NewLocator() (Locator, error) {
	dirs := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		"/usr/bin",
	}

	// python.org installers land under the framework versions directory.
	const frameworks = "/Library/Frameworks/Python.framework/Versions"
	if entries, err := os.ReadDir(frameworks); err == nil {
		for _, e := range entries {
			if e.IsDir() && e.Name() != "Current" {
				dirs = append(dirs, filepath.Join(frameworks, e.Name(), "bin"))
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".pyenv", "shims"))
	}
	return newPathLocator("darwin", dirs), nil
}
