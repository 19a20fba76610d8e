// Package testutil provides common test helpers for pyshell tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javanstorm/pyshell/internal/env"
	"github.com/javanstorm/pyshell/internal/logging"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
)

func init() {
	logging.SetupTests()
}

// TestConfig returns a ManagerConfig suitable for testing.
// Uses t.TempDir() for ProjectDir and DataDir, ensuring automatic cleanup.
func TestConfig(t *testing.T) env.ManagerConfig {
	t.Helper()

	provider, err := toolkit.GetDefault()
	if err != nil {
		t.Fatalf("failed to get default provider: %v", err)
	}

	return env.ManagerConfig{
		Name:       "test-env",
		ProjectDir: t.TempDir(),
		DataDir:    t.TempDir(),
		VenvDir:    ".venv",
		Manifest:   "requirements.txt",
		Env:        make(map[string]string),
		Provider:   provider,
	}
}

// CreateFakeVenv materializes a minimal venv layout at dir: a pyvenv.cfg
// recording the given interpreter version, a bin directory, and the
// matching site-packages directory.
func CreateFakeVenv(t *testing.T, dir, version string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0755); err != nil {
		t.Fatalf("failed to create venv bin dir: %v", err)
	}

	v, err := interpreter.ParseVersion(version)
	if err != nil {
		t.Fatalf("bad test version %q: %v", version, err)
	}
	site := filepath.Join(dir, "lib", "python"+v.Series(), "site-packages")
	if err := os.MkdirAll(site, 0755); err != nil {
		t.Fatalf("failed to create site-packages: %v", err)
	}

	cfg := strings.Join([]string{
		"home = /usr/bin",
		"version = " + version,
		"executable = /usr/bin/python3",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "pyvenv.cfg"), []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to write pyvenv.cfg: %v", err)
	}
}

// CreateManifest writes a requirements manifest at the given path with
// one package per line.
func CreateManifest(t *testing.T, path string, packages ...string) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	content := strings.Join(packages, "\n")
	if len(packages) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest at %s: %v", path, err)
	}
}

// CreateTempState writes the given PersistentState to a temporary file
// and returns the path. The file is created in a temporary directory
// that is automatically cleaned up.
func CreateTempState(t *testing.T, state *env.PersistentState) string {
	t.Helper()

	tmpDir := t.TempDir()
	statePath := filepath.Join(tmpDir, "state.json")

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal state: %v", err)
	}

	if err := os.WriteFile(statePath, data, 0600); err != nil {
		t.Fatalf("failed to write state file: %v", err)
	}

	return statePath
}
