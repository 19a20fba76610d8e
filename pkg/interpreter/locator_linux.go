//go:build linux

package interpreter

import (
	"os"
	"path/filepath"
)

// NewLocator returns the Linux interpreter locator.
// Beyond PATH, it scans the usual system prefixes and pyenv shims.
func NewLocator() (Locator, error) {
	dirs := []string{
		"/usr/bin",
		"/usr/local/bin",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".pyenv", "shims"),
			filepath.Join(home, ".local", "bin"),
		)
	}
	return newPathLocator("linux", dirs), nil
}
