package env

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
)

// fakeRunner records invocations and lets tests script the results.
// Shared by the manager, venv and snapshot tests.
type fakeRunner struct {
	runs       []string
	streams    []string
	runHook    func(name string, args []string) (stdout, stderr []byte, exitCode int32, err error)
	streamHook func(name string, args []string) error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	f.runs = append(f.runs, strings.Join(append([]string{name}, args...), " "))
	if f.runHook != nil {
		return f.runHook(name, args)
	}
	return nil, nil, 0, nil
}

func (f *fakeRunner) Stream(ctx context.Context, name string, args ...string) error {
	f.streams = append(f.streams, strings.Join(append([]string{name}, args...), " "))
	if f.streamHook != nil {
		return f.streamHook(name, args)
	}
	return nil
}

// fakeLocator returns a fixed interpreter and counts Find calls so
// tests can assert the warm path skips discovery.
type fakeLocator struct {
	python    interpreter.Python
	caps      interpreter.Capabilities
	findCalls int
	findErr   error
}

func (f *fakeLocator) Discover(ctx context.Context) ([]interpreter.Python, error) {
	return []interpreter.Python{f.python}, nil
}

func (f *fakeLocator) Find(ctx context.Context, spec interpreter.Spec) (interpreter.Python, error) {
	f.findCalls++
	if f.findErr != nil {
		return interpreter.Python{}, f.findErr
	}
	return f.python, nil
}

func (f *fakeLocator) Capabilities(ctx context.Context, py interpreter.Python) (interpreter.Capabilities, error) {
	return f.caps, nil
}

func (f *fakeLocator) Info() interpreter.Info {
	return interpreter.Info{Name: "fake", Arch: "test"}
}

// writeFakeVenv lays down the minimal on-disk shape of a venv.
func writeFakeVenv(t *testing.T, dir, version string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0755); err != nil {
		t.Fatalf("create fake venv: %v", err)
	}
	cfg := "home = /usr/bin\nversion = " + version + "\nexecutable = /usr/bin/python3\n"
	if err := os.WriteFile(filepath.Join(dir, "pyvenv.cfg"), []byte(cfg), 0644); err != nil {
		t.Fatalf("write pyvenv.cfg: %v", err)
	}
}

// venvCreatingRunner simulates python -m venv by materializing the
// venv directory when invoked.
func venvCreatingRunner(t *testing.T, version string) *fakeRunner {
	t.Helper()
	r := &fakeRunner{}
	r.runHook = func(name string, args []string) ([]byte, []byte, int32, error) {
		if len(args) >= 2 && args[0] == "-m" && args[1] == "venv" {
			writeFakeVenv(t, args[len(args)-1], version)
		}
		return nil, nil, 0, nil
	}
	return r
}

func testManager(t *testing.T, cfg ManagerConfig) (*Manager, *fakeRunner, *fakeLocator) {
	t.Helper()

	runner, ok := cfg.Runner.(*fakeRunner)
	if !ok {
		runner = venvCreatingRunner(t, "3.12.4")
		cfg.Runner = runner
	}
	locator, ok := cfg.Locator.(*fakeLocator)
	if !ok {
		locator = &fakeLocator{
			python: interpreter.Python{
				Path:    "/usr/bin/python3.12",
				Version: interpreter.Version{Major: 3, Minor: 12, Patch: 4},
				Source:  "path",
			},
			caps: interpreter.Capabilities{Venv: true, EnsurePip: true, Tkinter: true},
		}
		cfg.Locator = locator
	}
	if cfg.Provider == nil {
		p, err := toolkit.Get(toolkit.Headless)
		if err != nil {
			t.Fatalf("get headless provider: %v", err)
		}
		cfg.Provider = p
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m, runner, locator
}

func hasInvocation(calls []string, substr string) bool {
	for _, c := range calls {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

func TestManagerColdSetup(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m, runner, locator := testManager(t, ManagerConfig{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(base, "data"),
	})

	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if m.State() != StateProvisioned {
		t.Errorf("state = %s, want provisioned", m.State())
	}
	if locator.findCalls != 1 {
		t.Errorf("Find called %d times, want 1", locator.findCalls)
	}
	if !hasInvocation(runner.runs, "-m venv") {
		t.Errorf("venv creation not invoked, runs: %v", runner.runs)
	}
	if !m.Venv().Exists() {
		t.Error("venv should exist after setup")
	}

	py, err := m.Python()
	if err != nil {
		t.Fatalf("Python failed: %v", err)
	}
	if py.Path != "/usr/bin/python3.12" {
		t.Errorf("python path = %q, want /usr/bin/python3.12", py.Path)
	}

	// Setup recorded in persistent state
	st, err := m.PersistentState()
	if err != nil {
		t.Fatalf("PersistentState failed: %v", err)
	}
	if st.SetupCount != 1 {
		t.Errorf("setup count = %d, want 1", st.SetupCount)
	}
	if !st.CleanSetup {
		t.Error("setup should be recorded clean")
	}
	if st.PythonVersion != "3.12.4" {
		t.Errorf("recorded version = %q, want 3.12.4", st.PythonVersion)
	}
}

func TestManagerWarmSetupSkipsProvisioning(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	dataDir := filepath.Join(base, "data")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	first, _, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: dataDir})
	if err := first.Setup(context.Background()); err != nil {
		t.Fatalf("first Setup failed: %v", err)
	}

	// A fresh manager over the same project must reuse the venv.
	second, runner, locator := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: dataDir})
	if err := second.Setup(context.Background()); err != nil {
		t.Fatalf("second Setup failed: %v", err)
	}

	if locator.findCalls != 0 {
		t.Errorf("warm setup called Find %d times, want 0", locator.findCalls)
	}
	if hasInvocation(runner.runs, "-m venv") {
		t.Errorf("warm setup recreated the venv, runs: %v", runner.runs)
	}
	if second.State() != StateProvisioned {
		t.Errorf("state = %s, want provisioned", second.State())
	}

	py, err := second.Python()
	if err != nil {
		t.Fatalf("Python failed: %v", err)
	}
	if py.Version.Series() != "3.12" {
		t.Errorf("warm python series = %q, want 3.12", py.Version.Series())
	}
}

func TestManagerSetupTwiceRejected(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, _, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: filepath.Join(base, "data")})
	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	err := m.Setup(context.Background())
	if err == nil {
		t.Fatal("expected error for repeated Setup")
	}
	if !strings.Contains(err.Error(), "invalid state") {
		t.Errorf("wrong error: %v", err)
	}
}

func TestManagerSetupRejectsVenvlessInterpreter(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	locator := &fakeLocator{
		python: interpreter.Python{Path: "/usr/bin/python3", Version: interpreter.Version{Major: 3, Minor: 12}},
		caps:   interpreter.Capabilities{Venv: false},
	}
	m, _, _ := testManager(t, ManagerConfig{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(base, "data"),
		Locator:    locator,
	})

	err := m.Setup(context.Background())
	if err == nil {
		t.Fatal("expected error for interpreter without venv")
	}
	var unsupported *VenvUnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("error = %v, want VenvUnsupportedError", err)
	}
	if m.State() != StateError {
		t.Errorf("state = %s, want error", m.State())
	}
}

func TestManagerSetupRejectsMissingTkinter(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	tk, err := toolkit.Get(toolkit.Tk)
	if err != nil {
		t.Fatalf("get tk provider: %v", err)
	}
	locator := &fakeLocator{
		python: interpreter.Python{Path: "/usr/bin/python3", Version: interpreter.Version{Major: 3, Minor: 12}},
		caps:   interpreter.Capabilities{Venv: true, EnsurePip: true, Tkinter: false},
	}
	m, _, _ := testManager(t, ManagerConfig{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(base, "data"),
		Provider:   tk,
		Locator:    locator,
	})

	err = m.Setup(context.Background())
	if err == nil {
		t.Fatal("expected error for interpreter without tkinter")
	}
	var missing *MissingToolkitError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingToolkitError", err)
	}
	if missing.Module != "tkinter" {
		t.Errorf("module = %q, want tkinter", missing.Module)
	}
}

func TestManagerSetupBadPin(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, _, locator := testManager(t, ManagerConfig{
		ProjectDir: projectDir,
		DataDir:    filepath.Join(base, "data"),
		Python:     "not-a-version",
	})

	if err := m.Setup(context.Background()); err == nil {
		t.Fatal("expected error for malformed pin")
	}
	if locator.findCalls != 0 {
		t.Error("Find should not run with a malformed pin")
	}
}

func TestManagerSyncNoManifest(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, runner, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: filepath.Join(base, "data")})
	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	res, err := m.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res != SyncSkipped {
		t.Errorf("result = %s, want skipped", res)
	}
	// Nothing must be installed when no manifest exists
	if len(runner.streams) != 0 {
		t.Errorf("installer invoked without a manifest: %v", runner.streams)
	}
	if m.State() != StateReady {
		t.Errorf("state = %s, want ready", m.State())
	}
}

func TestManagerSyncInstallsManifest(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)
	manifest := filepath.Join(projectDir, "requirements.txt")
	if err := os.WriteFile(manifest, []byte("customtkinter==5.2.2\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, runner, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: filepath.Join(base, "data")})
	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	res, err := m.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res != SyncInstalled {
		t.Errorf("result = %s, want installed", res)
	}
	if !hasInvocation(runner.streams, "-m pip install -r "+manifest) {
		t.Errorf("pip install not invoked, streams: %v", runner.streams)
	}

	st, err := m.PersistentState()
	if err != nil {
		t.Fatalf("PersistentState failed: %v", err)
	}
	if st.ManifestHash == "" {
		t.Error("manifest fingerprint should be recorded after sync")
	}
	if st.LastSync.IsZero() {
		t.Error("sync time should be recorded")
	}
}

func TestManagerSyncUnchangedManifest(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	dataDir := filepath.Join(base, "data")
	os.MkdirAll(projectDir, 0755)
	os.WriteFile(filepath.Join(projectDir, "requirements.txt"), []byte("pillow\n"), 0644)

	first, _, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: dataDir})
	if err := first.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if _, err := first.Sync(context.Background(), false); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}

	// A fresh manager sees the recorded fingerprint and skips the install.
	second, runner, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: dataDir})
	if err := second.Setup(context.Background()); err != nil {
		t.Fatalf("second Setup failed: %v", err)
	}

	res, err := second.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if res != SyncUpToDate {
		t.Errorf("result = %s, want up to date", res)
	}
	if len(runner.streams) != 0 {
		t.Errorf("unchanged manifest reinstalled: %v", runner.streams)
	}

	// Force overrides the fingerprint check
	res, err = second.Sync(context.Background(), true)
	if err != nil {
		t.Fatalf("forced Sync failed: %v", err)
	}
	if res != SyncInstalled {
		t.Errorf("forced result = %s, want installed", res)
	}
	if len(runner.streams) != 1 {
		t.Errorf("forced sync should install once, streams: %v", runner.streams)
	}
}

func TestManagerSyncChangedManifest(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	dataDir := filepath.Join(base, "data")
	os.MkdirAll(projectDir, 0755)
	manifest := filepath.Join(projectDir, "requirements.txt")
	os.WriteFile(manifest, []byte("pillow\n"), 0644)

	first, _, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: dataDir})
	if err := first.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if _, err := first.Sync(context.Background(), false); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}

	// Edit the manifest; the next sync must reinstall.
	os.WriteFile(manifest, []byte("pillow\ndarkdetect\n"), 0644)

	second, runner, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: dataDir})
	if err := second.Setup(context.Background()); err != nil {
		t.Fatalf("second Setup failed: %v", err)
	}
	res, err := second.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if res != SyncInstalled {
		t.Errorf("result = %s, want installed after manifest edit", res)
	}
	if len(runner.streams) != 1 {
		t.Errorf("expected one install, streams: %v", runner.streams)
	}
}

func TestManagerSyncBeforeSetup(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, _, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: filepath.Join(base, "data")})

	if _, err := m.Sync(context.Background(), false); err == nil {
		t.Fatal("expected error syncing before setup")
	}
}

func TestManagerActivationGate(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, _, _ := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: filepath.Join(base, "data")})

	if _, err := m.Activation(); !errors.Is(err, ErrNotSetup) {
		t.Errorf("Activation before setup: err = %v, want ErrNotSetup", err)
	}
	if _, err := m.Python(); !errors.Is(err, ErrNotSetup) {
		t.Errorf("Python before setup: err = %v, want ErrNotSetup", err)
	}
}

func TestManagerActivation(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, _, _ := testManager(t, ManagerConfig{
		Name:       "app",
		ProjectDir: projectDir,
		DataDir:    filepath.Join(base, "data"),
		Env:        map[string]string{"APP_MODE": "dev"},
		Links:      []string{"shared"},
	})
	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	act, err := m.Activation()
	if err != nil {
		t.Fatalf("Activation failed: %v", err)
	}

	if got, _ := act.Lookup("VIRTUAL_ENV"); got != filepath.Join(projectDir, ".venv") {
		t.Errorf("VIRTUAL_ENV = %q", got)
	}
	if got, _ := act.Lookup("APP_MODE"); got != "dev" {
		t.Errorf("APP_MODE = %q, want dev", got)
	}
	if got, _ := act.Lookup("VIRTUAL_ENV_PROMPT"); got != "(app)" {
		t.Errorf("prompt = %q, want (app)", got)
	}
	// Relative links resolve against the project root
	if got, _ := act.Lookup("PYTHONPATH"); got != filepath.Join(projectDir, "shared") {
		t.Errorf("PYTHONPATH = %q", got)
	}

	// Composed once, then cached
	again, err := m.Activation()
	if err != nil {
		t.Fatalf("second Activation failed: %v", err)
	}
	if again != act {
		t.Error("Activation should return the cached composition")
	}
}

func TestManagerRecreate(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)

	m, runner, locator := testManager(t, ManagerConfig{ProjectDir: projectDir, DataDir: filepath.Join(base, "data")})
	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if err := m.Recreate(context.Background()); err != nil {
		t.Fatalf("Recreate failed: %v", err)
	}

	if m.State() != StateProvisioned {
		t.Errorf("state = %s, want provisioned", m.State())
	}
	if locator.findCalls != 2 {
		t.Errorf("Find called %d times, want 2 (initial + recreate)", locator.findCalls)
	}

	venvRuns := 0
	for _, r := range runner.runs {
		if strings.Contains(r, "-m venv") {
			venvRuns++
		}
	}
	if venvRuns != 2 {
		t.Errorf("venv created %d times, want 2", venvRuns)
	}

	// Recreate resets recorded setup history
	st, err := m.PersistentState()
	if err != nil {
		t.Fatalf("PersistentState failed: %v", err)
	}
	if st.SetupCount != 1 {
		t.Errorf("setup count after recreate = %d, want 1", st.SetupCount)
	}
}

func TestManagerStatus(t *testing.T) {
	base := t.TempDir()
	projectDir := filepath.Join(base, "app")
	os.MkdirAll(projectDir, 0755)
	os.WriteFile(filepath.Join(projectDir, "requirements.txt"), []byte("pillow\ndarkdetect\n"), 0644)

	m, _, _ := testManager(t, ManagerConfig{
		Name:       "app",
		ProjectDir: projectDir,
		DataDir:    filepath.Join(base, "data"),
	})

	// Before setup: nothing provisioned, manifest visible and stale
	s, err := m.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if s.VenvExists {
		t.Error("venv should not exist before setup")
	}
	if !s.HasManifest {
		t.Error("manifest should be detected")
	}
	if !s.ManifestStale {
		t.Error("manifest should be stale before first sync")
	}
	if s.Packages != 2 {
		t.Errorf("packages = %d, want 2", s.Packages)
	}

	if err := m.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if _, err := m.Sync(context.Background(), false); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	s, err = m.Status()
	if err != nil {
		t.Fatalf("Status after setup failed: %v", err)
	}
	if !s.VenvExists {
		t.Error("venv should exist after setup")
	}
	if s.PythonVersion != "3.12.4" {
		t.Errorf("python version = %q, want 3.12.4", s.PythonVersion)
	}
	if s.ManifestStale {
		t.Error("manifest should be in sync after Sync")
	}
	if s.Toolkit != "headless" {
		t.Errorf("toolkit = %q, want headless", s.Toolkit)
	}
}
