package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFileName is the per-project override file looked up at the
// project root.
const ProjectFileName = "pyshell.toml"

// Project holds per-project settings from pyshell.toml. Zero-value
// fields defer to the global configuration.
type Project struct {
	// Name overrides the registry name (default: directory basename).
	Name string `toml:"name"`

	// Python pins the interpreter version for this project.
	Python string `toml:"python"`

	// Toolkit selects the GUI toolkit for this project.
	Toolkit string `toml:"toolkit"`

	// Manifest overrides the dependency manifest filename.
	Manifest string `toml:"manifest"`

	// Env is extra environment variables exported on activation.
	Env map[string]string `toml:"env"`

	// Links are directories exposed to the environment via a .pth file.
	Links []string `toml:"links"`
}

// LoadProject reads pyshell.toml from the project directory.
// A missing file is not an error; it returns (nil, nil).
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, ProjectFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var p Project
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ProjectFileName, err)
	}
	return &p, nil
}

// Settings is the merged view of global config and project overrides
// for one project directory.
type Settings struct {
	Name     string
	Dir      string
	Python   string
	Toolkit  string
	VenvDir  string
	Manifest string
	Shell    string
	Env      map[string]string
	Links    []string
}

// Effective merges the global configuration with a project's overrides.
// proj may be nil when the project has no pyshell.toml.
func Effective(global *Config, proj *Project, projectDir string) Settings {
	if global == nil {
		global = DefaultConfig()
	}

	s := Settings{
		Name:     filepath.Base(projectDir),
		Dir:      projectDir,
		Python:   global.DefaultPython,
		Toolkit:  global.Toolkit,
		VenvDir:  global.VenvDir,
		Manifest: global.Manifest,
		Shell:    global.Shell,
	}

	if proj != nil {
		if proj.Name != "" {
			s.Name = proj.Name
		}
		if proj.Python != "" {
			s.Python = proj.Python
		}
		if proj.Toolkit != "" {
			s.Toolkit = proj.Toolkit
		}
		if proj.Manifest != "" {
			s.Manifest = proj.Manifest
		}
		if len(proj.Env) > 0 {
			s.Env = proj.Env
		}
		if len(proj.Links) > 0 {
			s.Links = proj.Links
		}
	}

	return s
}

// VenvPath returns the absolute environment directory for the settings.
func (s Settings) VenvPath() string {
	return filepath.Join(s.Dir, s.VenvDir)
}

// ManifestPath returns the absolute manifest path for the settings.
func (s Settings) ManifestPath() string {
	if filepath.IsAbs(s.Manifest) {
		return s.Manifest
	}
	return filepath.Join(s.Dir, s.Manifest)
}
