package env

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/javanstorm/pyshell/internal/host"
	"github.com/javanstorm/pyshell/pkg/interpreter"
)

// venvConfigName is the marker file every venv carries at its root.
const venvConfigName = "pyvenv.cfg"

// Venv represents a virtual environment rooted at a directory.
type Venv struct {
	Dir string
}

// Exists reports whether the directory holds a usable venv.
// The pyvenv.cfg marker is checked rather than the directory itself so
// a half-created or foreign directory does not count.
func (v Venv) Exists() bool {
	info, err := os.Stat(filepath.Join(v.Dir, venvConfigName))
	return err == nil && info.Mode().IsRegular()
}

// BinDir returns the directory holding the venv's executables.
func (v Venv) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(v.Dir, "Scripts")
	}
	return filepath.Join(v.Dir, "bin")
}

// Python returns the path of the venv's interpreter.
func (v Venv) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(v.BinDir(), "python.exe")
	}
	return filepath.Join(v.BinDir(), "python")
}

// Config returns the parsed pyvenv.cfg key/value pairs.
func (v Venv) Config() (map[string]string, error) {
	f, err := os.Open(filepath.Join(v.Dir, venvConfigName))
	if err != nil {
		return nil, fmt.Errorf("open pyvenv.cfg: %w", err)
	}
	defer f.Close()

	cfg := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		cfg[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pyvenv.cfg: %w", err)
	}
	return cfg, nil
}

// Version returns the interpreter version recorded in pyvenv.cfg.
func (v Venv) Version() (interpreter.Version, error) {
	cfg, err := v.Config()
	if err != nil {
		return interpreter.Version{}, err
	}

	// CPython writes "version"; some tools write "version_info".
	raw, ok := cfg["version"]
	if !ok {
		raw, ok = cfg["version_info"]
	}
	if !ok {
		return interpreter.Version{}, fmt.Errorf("pyvenv.cfg has no version entry")
	}

	ver, err := interpreter.ParseVersion(raw)
	if err != nil {
		return interpreter.Version{}, fmt.Errorf("pyvenv.cfg version %q: %w", raw, err)
	}
	return ver, nil
}

// BasePython returns the host interpreter the venv was created from,
// as recorded in pyvenv.cfg.
func (v Venv) BasePython() (string, error) {
	cfg, err := v.Config()
	if err != nil {
		return "", err
	}

	// Python 3.11+ records the executable directly.
	if exe, ok := cfg["executable"]; ok {
		return exe, nil
	}
	if home, ok := cfg["home"]; ok {
		return filepath.Join(home, "python3"), nil
	}
	return "", fmt.Errorf("pyvenv.cfg has no interpreter entry")
}

// SitePackages returns the venv's site-packages directory.
func (v Venv) SitePackages() (string, error) {
	if runtime.GOOS == "windows" {
		return filepath.Join(v.Dir, "Lib", "site-packages"), nil
	}
	ver, err := v.Version()
	if err != nil {
		return "", err
	}
	return filepath.Join(v.Dir, "lib", "python"+ver.Series(), "site-packages"), nil
}

// Remove deletes the venv directory.
func (v Venv) Remove() error {
	if err := os.RemoveAll(v.Dir); err != nil {
		return fmt.Errorf("remove venv: %w", err)
	}
	return nil
}

// CreateVenv builds a virtual environment at dir using the given host
// interpreter. The parent directory must exist.
func CreateVenv(ctx context.Context, runner host.CommandRunner, pythonPath, dir string, upgradeDeps bool) error {
	args := []string{"-m", "venv"}
	if upgradeDeps {
		args = append(args, "--upgrade-deps")
	}
	args = append(args, dir)

	if _, err := host.RunChecked(ctx, runner, pythonPath, args...); err != nil {
		return fmt.Errorf("create venv: %w", err)
	}
	return nil
}
