package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PersistentState holds environment state that survives between runs.
type PersistentState struct {
	// LastSetup is when setup last ran for this environment.
	LastSetup time.Time `json:"last_setup,omitempty"`

	// LastSync is when the manifest was last installed.
	LastSync time.Time `json:"last_sync,omitempty"`

	// SetupCount is the number of times setup has run.
	SetupCount int `json:"setup_count"`

	// PythonPath is the host interpreter the venv was built from.
	PythonPath string `json:"python_path,omitempty"`

	// PythonVersion is the cached interpreter version string.
	PythonVersion string `json:"python_version,omitempty"`

	// ManifestHash is the manifest fingerprint at last sync.
	ManifestHash string `json:"manifest_hash,omitempty"`

	// CleanSetup indicates if the last setup completed cleanly.
	CleanSetup bool `json:"clean_setup"`
}

// StateFile manages persistent state storage.
type StateFile struct {
	path string
}

// NewStateFile creates a state file manager.
func NewStateFile(dataDir string) *StateFile {
	return &StateFile{
		path: filepath.Join(dataDir, "state.json"),
	}
}

// Load reads the state from disk.
func (s *StateFile) Load() (*PersistentState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &PersistentState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state PersistentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	return &state, nil
}

// Save writes the state to disk.
func (s *StateFile) Save(state *PersistentState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	// Write atomically
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return os.Rename(tmpPath, s.path)
}

// RecordSetupStart marks the beginning of a setup run. The clean flag
// stays false until RecordSetupDone, so an interrupted setup is visible
// in status output.
func (s *StateFile) RecordSetupStart() error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state.LastSetup = time.Now()
	state.SetupCount++
	state.CleanSetup = false

	return s.Save(state)
}

// RecordSetupDone marks a completed setup with the interpreter used.
func (s *StateFile) RecordSetupDone(pythonPath, version string) error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state.PythonPath = pythonPath
	state.PythonVersion = version
	state.CleanSetup = true

	return s.Save(state)
}

// RecordSync records a manifest install and its fingerprint.
func (s *StateFile) RecordSync(manifestHash string) error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state.LastSync = time.Now()
	state.ManifestHash = manifestHash

	return s.Save(state)
}

// Reset clears the recorded state. Used when the venv is recreated.
func (s *StateFile) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// Path returns the state file path.
func (s *StateFile) Path() string {
	return s.path
}
