package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/javanstorm/pyshell/internal/host"
	"github.com/javanstorm/pyshell/internal/timing"
	"github.com/javanstorm/pyshell/internal/toolkit"
	"github.com/javanstorm/pyshell/pkg/interpreter"
)

// State represents the environment lifecycle state.
type State int

const (
	StateNew         State = iota
	StateProvisioned       // Venv exists, interpreter resolved
	StateReady             // Manifest synced
	StateError             // Error state
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateProvisioned:
		return "provisioned"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SyncResult describes what a sync pass did.
type SyncResult int

const (
	// SyncSkipped means no manifest exists, so nothing was installed.
	SyncSkipped SyncResult = iota

	// SyncUpToDate means the manifest is unchanged since the last sync.
	SyncUpToDate

	// SyncInstalled means the manifest was installed.
	SyncInstalled
)

func (r SyncResult) String() string {
	switch r {
	case SyncSkipped:
		return "skipped"
	case SyncUpToDate:
		return "up to date"
	case SyncInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// ManagerConfig holds configuration for the environment manager.
type ManagerConfig struct {
	// Name is the registered environment name.
	Name string

	// ProjectDir is the project root the environment belongs to.
	ProjectDir string

	// DataDir is where per-environment state is stored.
	DataDir string

	// VenvDir is the venv location relative to the project root.
	VenvDir string

	// Manifest is the requirements file relative to the project root.
	Manifest string

	// Python is the interpreter version pin (empty = newest Python 3).
	Python string

	// Env holds extra variables from the project file.
	Env map[string]string

	// Links are external directories placed on PYTHONPATH.
	Links []string

	// UpgradeDeps upgrades pip inside freshly created venvs.
	UpgradeDeps bool

	// Provider is the GUI toolkit provider.
	Provider toolkit.Provider

	// Locator finds host interpreters. Defaults to the platform locator.
	Locator interpreter.Locator

	// Runner executes host commands. Defaults to os/exec.
	Runner host.CommandRunner

	// Timer receives phase marks when timing is enabled.
	Timer *timing.Timer
}

// Manager orchestrates environment lifecycle: interpreter resolution,
// venv provisioning, manifest sync and activation.
type Manager struct {
	cfg        ManagerConfig
	locator    interpreter.Locator
	runner     host.CommandRunner
	stateFile  *StateFile
	venv       Venv
	mu         sync.RWMutex
	state      State
	lastErr    error
	python     interpreter.Python
	activation *Activation
}

// NewManager creates a new environment manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	// Apply defaults
	if cfg.VenvDir == "" {
		cfg.VenvDir = ".venv"
	}
	if cfg.Manifest == "" {
		cfg.Manifest = "requirements.txt"
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(cfg.ProjectDir)
	}

	// Use default toolkit provider if not specified
	if cfg.Provider == nil {
		var err error
		cfg.Provider, err = toolkit.GetDefault()
		if err != nil {
			return nil, fmt.Errorf("get default toolkit: %w", err)
		}
	}

	locator := cfg.Locator
	if locator == nil {
		var err error
		locator, err = interpreter.NewLocator()
		if err != nil {
			return nil, fmt.Errorf("create interpreter locator: %w", err)
		}
	}

	runner := cfg.Runner
	if runner == nil {
		runner = host.NewExecRunner()
	}

	return &Manager{
		cfg:       cfg,
		locator:   locator,
		runner:    runner,
		stateFile: NewStateFile(cfg.DataDir),
		venv:      Venv{Dir: filepath.Join(cfg.ProjectDir, cfg.VenvDir)},
		state:     StateNew,
	}, nil
}

// Setup provisions the environment: resolves a host interpreter and
// creates the venv if needed. Uses an optimized warm path when the
// venv already exists, so repeated runs never recreate it.
func (m *Manager) Setup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNew {
		return fmt.Errorf("cannot set up: invalid state %s", m.state)
	}

	if err := m.stateFile.RecordSetupStart(); err != nil {
		// State tracking is non-critical
		log.Warn().Err(err).Msg("record setup start")
	}

	if m.venv.Exists() {
		return m.warmSetup(ctx)
	}

	return m.coldSetup(ctx)
}

// warmSetup is the optimized path when the venv already exists. The
// interpreter is read back from pyvenv.cfg and prior state instead of
// being located and validated again.
func (m *Manager) warmSetup(ctx context.Context) error {
	ver, err := m.venv.Version()
	if err != nil {
		// Unreadable marker means a damaged venv. Rebuild it.
		log.Warn().Err(err).Str("venv", m.venv.Dir).Msg("unreadable venv, recreating")
		if err := m.venv.Remove(); err != nil {
			m.state = StateError
			m.lastErr = err
			return err
		}
		return m.coldSetup(ctx)
	}

	py := interpreter.Python{Path: m.venv.Python(), Version: ver, Source: "venv"}
	if st, err := m.stateFile.Load(); err == nil && st.PythonPath != "" {
		if _, statErr := os.Stat(st.PythonPath); statErr == nil {
			py.Path = st.PythonPath
			py.Source = "state"
		}
	}

	m.python = py
	m.mark("locate")
	m.mark("create_venv")

	if err := m.stateFile.RecordSetupDone(py.Path, ver.String()); err != nil {
		log.Warn().Err(err).Msg("record setup done")
	}

	m.state = StateProvisioned
	return nil
}

// coldSetup is the full path: locate an interpreter, validate it and
// build the venv.
func (m *Manager) coldSetup(ctx context.Context) error {
	spec := interpreter.Spec{
		Pin:        m.cfg.Python,
		MinVersion: interpreter.Version{Major: 3, Minor: 4},
	}
	if err := spec.Validate(); err != nil {
		m.state = StateError
		m.lastErr = err
		return fmt.Errorf("interpreter pin %q: %w", m.cfg.Python, err)
	}

	py, err := m.locator.Find(ctx, spec)
	if err != nil {
		m.state = StateError
		m.lastErr = err
		return fmt.Errorf("locate interpreter: %w", err)
	}
	m.mark("locate")

	caps, err := m.locator.Capabilities(ctx, py)
	if err != nil {
		m.state = StateError
		m.lastErr = err
		return fmt.Errorf("interrogate interpreter: %w", err)
	}
	if !caps.Venv {
		err := &VenvUnsupportedError{Python: py.Path}
		m.state = StateError
		m.lastErr = err
		return err
	}
	if err := m.checkToolkit(ctx, py, caps); err != nil {
		m.state = StateError
		m.lastErr = err
		return err
	}

	if err := CreateVenv(ctx, m.runner, py.Path, m.venv.Dir, m.cfg.UpgradeDeps); err != nil {
		m.state = StateError
		m.lastErr = err
		return err
	}
	m.mark("create_venv")

	if pkgs := m.cfg.Provider.BindingPackages(); len(pkgs) > 0 {
		args := append([]string{"-m", "pip", "install"}, pkgs...)
		if err := m.runner.Stream(ctx, m.venv.Python(), args...); err != nil {
			m.state = StateError
			m.lastErr = err
			return fmt.Errorf("install %s bindings: %w", m.cfg.Provider.ID(), err)
		}
	}

	m.python = py
	if err := m.stateFile.RecordSetupDone(py.Path, py.Version.String()); err != nil {
		log.Warn().Err(err).Msg("record setup done")
	}

	m.state = StateProvisioned
	return nil
}

// checkToolkit verifies the host interpreter carries the toolkit
// bindings. Only toolkits whose bindings must come from the standard
// library are checked here; pip-provided bindings are installed into
// the venv right after creation.
func (m *Manager) checkToolkit(ctx context.Context, py interpreter.Python, caps interpreter.Capabilities) error {
	mod := m.cfg.Provider.ProbeModule()
	if mod == "" || len(m.cfg.Provider.BindingPackages()) > 0 {
		return nil
	}

	if mod == "tkinter" {
		if caps.Tkinter {
			return nil
		}
		return &MissingToolkitError{Python: py.Path, Toolkit: m.cfg.Provider.ID(), Module: mod}
	}

	_, _, code, err := m.runner.Run(ctx, py.Path, "-c", "import "+mod)
	if err != nil || code != 0 {
		return &MissingToolkitError{Python: py.Path, Toolkit: m.cfg.Provider.ID(), Module: mod}
	}
	return nil
}

// Sync installs the project manifest into the venv. Absent manifests
// are skipped, and unchanged manifests are not reinstalled unless
// force is set.
func (m *Manager) Sync(ctx context.Context, force bool) (SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateProvisioned && m.state != StateReady {
		return SyncSkipped, fmt.Errorf("cannot sync: invalid state %s", m.state)
	}

	manifest := Manifest{Path: filepath.Join(m.cfg.ProjectDir, m.cfg.Manifest)}
	if !manifest.Exists() {
		log.Debug().Str("manifest", manifest.Path).Msg("no manifest, skipping install")
		m.mark("manifest")
		m.state = StateReady
		return SyncSkipped, nil
	}

	st, err := m.stateFile.Load()
	if err != nil {
		return SyncSkipped, err
	}

	changed, sum, err := manifest.Changed(st.ManifestHash)
	if err != nil {
		return SyncSkipped, err
	}
	if !changed && !force {
		m.mark("manifest")
		m.state = StateReady
		return SyncUpToDate, nil
	}

	if err := m.runner.Stream(ctx, m.venv.Python(), "-m", "pip", "install", "-r", manifest.Path); err != nil {
		m.lastErr = err
		return SyncSkipped, fmt.Errorf("install manifest: %w", err)
	}
	m.mark("manifest")

	if err := m.stateFile.RecordSync(sum); err != nil {
		log.Warn().Err(err).Msg("record sync")
	}

	m.state = StateReady
	return SyncInstalled, nil
}

// Activation returns the composed activation variables. Only valid
// after Setup has provisioned the environment.
func (m *Manager) Activation() (*Activation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateProvisioned && m.state != StateReady {
		return nil, ErrNotSetup
	}
	if m.activation != nil {
		return m.activation, nil
	}

	site, err := m.venv.SitePackages()
	if err != nil {
		return nil, fmt.Errorf("resolve site-packages: %w", err)
	}

	tkVars, err := m.cfg.Provider.EnvVars(toolkit.Host{SitePackages: site})
	if err != nil {
		var notFound *toolkit.ErrLibraryNotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("toolkit variables: %w", err)
		}
		// The toolkit runtime may still resolve its own libraries.
		log.Warn().Err(err).Msg("toolkit library paths not exported")
		tkVars = nil
	}

	dirs := make([]string, 0, len(m.cfg.Links))
	for _, link := range m.cfg.Links {
		if !filepath.IsAbs(link) {
			link = filepath.Join(m.cfg.ProjectDir, link)
		}
		dirs = append(dirs, link)
	}

	m.activation = NewActivation(m.venv, m.cfg.Name, tkVars, m.cfg.Env, dirs)
	return m.activation, nil
}

// Recreate deletes the venv and provisions it again from scratch.
func (m *Manager) Recreate(ctx context.Context) error {
	m.mu.Lock()

	if err := m.venv.Remove(); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.stateFile.Reset(); err != nil {
		log.Warn().Err(err).Msg("reset state file")
	}
	m.state = StateNew
	m.activation = nil
	m.mu.Unlock()

	return m.Setup(ctx)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the last error that occurred.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Python returns the resolved host interpreter. Only valid after Setup.
func (m *Manager) Python() (interpreter.Python, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateProvisioned && m.state != StateReady {
		return interpreter.Python{}, ErrNotSetup
	}
	return m.python, nil
}

// Venv returns the managed virtual environment.
func (m *Manager) Venv() Venv {
	return m.venv
}

// Provider returns the toolkit provider.
func (m *Manager) Provider() toolkit.Provider {
	return m.cfg.Provider
}

// PersistentState returns the current persistent state.
func (m *Manager) PersistentState() (*PersistentState, error) {
	return m.stateFile.Load()
}

func (m *Manager) mark(name string) {
	if m.cfg.Timer != nil {
		m.cfg.Timer.Mark(name)
	}
}
