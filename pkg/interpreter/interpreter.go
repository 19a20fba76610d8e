// Package interpreter provides a unified interface for locating Python
// interpreters across platforms and interrogating their capabilities.
package interpreter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Python describes a located interpreter.
type Python struct {
	// Path is the absolute path to the interpreter executable.
	Path string

	// Version is the parsed interpreter version.
	Version Version

	// Source records where the interpreter was found ("path", "dir", "framework").
	Source string
}

// Version is a parsed interpreter version.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Series returns the MAJOR.MINOR form, e.g. "3.12".
// Venv layouts and library directories are keyed by series.
func (v Version) Series() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is the same or newer than o.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch >= o.Patch
}

// Compare returns -1, 0 or 1 ordering v against o.
func (v Version) Compare(o Version) int {
	for _, d := range [3]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// ParseVersion parses "3", "3.12" or "3.12.4" into a Version.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, ErrBadVersion
	}
	var v Version
	fields := [3]*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, ErrBadVersion
		}
		*fields[i] = n
	}
	return v, nil
}

// ParseVersionOutput parses the output of `python --version`,
// e.g. "Python 3.12.4\n".
func ParseVersionOutput(out string) (Version, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 2 || fields[0] != "Python" {
		return Version{}, fmt.Errorf("%w: %q", ErrBadVersion, strings.TrimSpace(out))
	}
	// Strip pre-release suffixes like "3.13.0rc1"
	raw := fields[1]
	if i := strings.IndexFunc(raw, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i > 0 {
		raw = raw[:i]
	}
	return ParseVersion(raw)
}

// Capabilities describes what a located interpreter supports.
// Used for early validation before provisioning.
type Capabilities struct {
	Venv      bool // python -m venv available
	EnsurePip bool // python -m ensurepip available
	Tkinter   bool // tkinter importable (tcl/tk bindings present)
}

// Info contains locator metadata.
type Info struct {
	Name string // locator implementation name
	Arch string // host architecture
}

// Locator finds Python interpreters on the host.
// Platform-specific implementations satisfy this interface.
type Locator interface {
	// Discover returns all interpreters found on this host, newest first.
	Discover(ctx context.Context) ([]Python, error)

	// Find returns the best interpreter satisfying the spec.
	Find(ctx context.Context, spec Spec) (Python, error)

	// Capabilities interrogates a located interpreter.
	Capabilities(ctx context.Context, py Python) (Capabilities, error)

	// Info returns locator metadata.
	Info() Info
}
