package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pthFileName is the path file owned by this tool inside the venv's
// site-packages. The interpreter appends each listed directory to
// sys.path at startup.
const pthFileName = "pyshell.pth"

// Links manages the directories a venv's interpreter can import from
// beyond its own site-packages.
type Links struct {
	SitePackages string
}

// Path returns the location of the path file, whether or not it exists.
func (l Links) Path() string {
	return filepath.Join(l.SitePackages, pthFileName)
}

// List returns the linked directories in file order.
func (l Links) List() ([]string, error) {
	data, err := os.ReadFile(l.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read path file: %w", err)
	}

	var dirs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dirs = append(dirs, line)
	}
	return dirs, nil
}

// Add links a directory into the venv. Already-linked directories are
// left in place.
func (l Links) Add(dir string) error {
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("link must be an absolute path: %s", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("link target: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("link target is not a directory: %s", dir)
	}

	dirs, err := l.List()
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if d == dir {
			return nil
		}
	}

	return l.write(append(dirs, dir))
}

// Remove unlinks a directory.
func (l Links) Remove(dir string) error {
	dirs, err := l.List()
	if err != nil {
		return err
	}

	found := false
	remaining := dirs[:0]
	for _, d := range dirs {
		if d == dir {
			found = true
		} else {
			remaining = append(remaining, d)
		}
	}
	if !found {
		return fmt.Errorf("directory not linked: %s", dir)
	}

	if len(remaining) == 0 {
		return l.Clear()
	}
	return l.write(remaining)
}

// Clear removes the path file entirely.
func (l Links) Clear() error {
	if err := os.Remove(l.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove path file: %w", err)
	}
	return nil
}

func (l Links) write(dirs []string) error {
	content := strings.Join(dirs, "\n") + "\n"

	// Write atomically
	tmpPath := l.Path() + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write path file: %w", err)
	}
	return os.Rename(tmpPath, l.Path())
}
