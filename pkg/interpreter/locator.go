package interpreter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// pathLocator discovers interpreters via PATH lookups plus a set of
// platform-specific directories. Platform files construct it with their
// own directory lists; see locator_linux.go and locator_darwin.go.
type pathLocator struct {
	name string
	dirs []string

	// Injection points for tests.
	lookPath func(string) (string, error)
	run      func(ctx context.Context, path string, args ...string) (string, error)
}

func newPathLocator(name string, dirs []string) *pathLocator {
	return &pathLocator{
		name:     name,
		dirs:     dirs,
		lookPath: exec.LookPath,
		run:      runCombined,
	}
}

// runCombined executes the interpreter and returns combined output.
// Old interpreters print --version to stderr, new ones to stdout.
func runCombined(ctx context.Context, path string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	return string(out), err
}

func (l *pathLocator) Info() Info {
	return Info{Name: l.name, Arch: runtime.GOARCH}
}

func (l *pathLocator) Discover(ctx context.Context) ([]Python, error) {
	seen := make(map[string]bool)
	var found []Python

	add := func(path, source string) {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true

		v, err := l.interrogate(ctx, path)
		if err != nil {
			return
		}
		found = append(found, Python{Path: path, Version: v, Source: source})
	}

	for _, name := range []string{"python3", "python"} {
		if path, err := l.lookPath(name); err == nil {
			add(path, "path")
		}
	}

	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !versionedName(e.Name()) {
				continue
			}
			add(filepath.Join(dir, e.Name()), "dir")
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Version.Compare(found[j].Version) > 0
	})
	return found, nil
}

func (l *pathLocator) Find(ctx context.Context, spec Spec) (Python, error) {
	if err := spec.Validate(); err != nil {
		return Python{}, err
	}

	// Fast path: a pinned candidate name resolves directly.
	for _, name := range spec.CandidateNames() {
		path, err := l.lookPath(name)
		if err != nil {
			continue
		}
		v, err := l.interrogate(ctx, path)
		if err != nil {
			continue
		}
		if spec.Matches(v) {
			return Python{Path: path, Version: v, Source: "path"}, nil
		}
	}

	// Slow path: full discovery, best matching version wins.
	all, err := l.Discover(ctx)
	if err != nil {
		return Python{}, err
	}
	for _, py := range all {
		if spec.Matches(py.Version) {
			return py, nil
		}
	}

	if spec.Pin != "" {
		return Python{}, fmt.Errorf("%w (pin %s)", ErrNotFound, spec.Pin)
	}
	return Python{}, ErrNotFound
}

func (l *pathLocator) Capabilities(ctx context.Context, py Python) (Capabilities, error) {
	caps := Capabilities{}
	probes := []struct {
		module string
		flag   *bool
	}{
		{"venv", &caps.Venv},
		{"ensurepip", &caps.EnsurePip},
		{"tkinter", &caps.Tkinter},
	}
	for _, p := range probes {
		_, err := l.run(ctx, py.Path, "-c", "import "+p.module)
		*p.flag = err == nil
	}
	return caps, nil
}

func (l *pathLocator) interrogate(ctx context.Context, path string) (Version, error) {
	out, err := l.run(ctx, path, "--version")
	if err != nil {
		return Version{}, fmt.Errorf("run %s --version: %w", path, err)
	}
	return ParseVersionOutput(out)
}

// versionedName matches python executables worth probing in a directory
// scan: python, python3, python3.12 and the like. Config scripts and
// other python-* helpers are excluded.
func versionedName(name string) bool {
	if name == "python" || name == "python3" {
		return true
	}
	rest, ok := strings.CutPrefix(name, "python3.")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
