package env

import (
	"path/filepath"
)

// Status is a point-in-time report of an environment's on-disk
// condition.
type Status struct {
	Name          string
	Root          string
	Toolkit       string
	VenvPath      string
	VenvExists    bool
	PythonVersion string
	PythonPath    string
	ManifestPath  string
	HasManifest   bool
	ManifestStale bool
	Packages      int
	Persistent    *PersistentState
}

// Status inspects the environment without mutating anything. Safe to
// call before Setup.
func (m *Manager) Status() (*Status, error) {
	st, err := m.stateFile.Load()
	if err != nil {
		return nil, err
	}

	s := &Status{
		Name:       m.cfg.Name,
		Root:       m.cfg.ProjectDir,
		Toolkit:    string(m.cfg.Provider.ID()),
		VenvPath:   m.venv.Dir,
		VenvExists: m.venv.Exists(),
		PythonPath: st.PythonPath,
		Persistent: st,
	}

	if s.VenvExists {
		if ver, err := m.venv.Version(); err == nil {
			s.PythonVersion = ver.String()
		}
		if s.PythonPath == "" {
			if base, err := m.venv.BasePython(); err == nil {
				s.PythonPath = base
			}
		}
	}

	manifest := Manifest{Path: filepath.Join(m.cfg.ProjectDir, m.cfg.Manifest)}
	s.ManifestPath = manifest.Path
	s.HasManifest = manifest.Exists()
	if s.HasManifest {
		stale, _, err := manifest.Changed(st.ManifestHash)
		if err != nil {
			return nil, err
		}
		s.ManifestStale = stale

		if pkgs, err := manifest.Packages(); err == nil {
			s.Packages = len(pkgs)
		}
	}

	return s, nil
}
