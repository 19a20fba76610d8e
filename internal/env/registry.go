// Package env provisions and tracks per-project Python environments:
// interpreter resolution, venv lifecycle, manifest installs and the
// variables a shell needs to use the result.
package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry represents a single registered project environment.
type Entry struct {
	Name      string    `json:"name"`
	Root      string    `json:"root"`
	Python    string    `json:"python,omitempty"`
	Toolkit   string    `json:"toolkit"`
	VenvDir   string    `json:"venv_dir"`
	CreatedAt time.Time `json:"created_at"`
}

// RegistryData holds the registry file contents.
type RegistryData struct {
	Projects []Entry `json:"projects"`
}

// Registry tracks the project environments known to this host.
type Registry struct {
	baseDir      string
	registryPath string
	activePath   string
}

// NewRegistry creates a new registry instance.
func NewRegistry(baseDir string) *Registry {
	return &Registry{
		baseDir:      baseDir,
		registryPath: filepath.Join(baseDir, "projects.json"),
		activePath:   filepath.Join(baseDir, "active"),
	}
}

// Load reads the registry from disk.
func (r *Registry) Load() (*RegistryData, error) {
	data, err := os.ReadFile(r.registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RegistryData{Projects: []Entry{}}, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var reg RegistryData
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	return &reg, nil
}

// Save writes the registry to disk.
func (r *Registry) Save(reg *RegistryData) error {
	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	// Write atomically
	tmpPath := r.registryPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}

	return os.Rename(tmpPath, r.registryPath)
}

// Add registers a new project environment.
func (r *Registry) Add(entry Entry) error {
	reg, err := r.Load()
	if err != nil {
		return err
	}

	for _, p := range reg.Projects {
		if p.Name == entry.Name {
			return fmt.Errorf("environment '%s' already exists", entry.Name)
		}
		if p.Root == entry.Root {
			return fmt.Errorf("project %s already registered as '%s'", entry.Root, p.Name)
		}
	}

	entry.CreatedAt = time.Now()
	reg.Projects = append(reg.Projects, entry)

	if err := r.Save(reg); err != nil {
		return err
	}

	if err := os.MkdirAll(r.DataDir(entry.Name), 0755); err != nil {
		return fmt.Errorf("create environment data directory: %w", err)
	}

	return nil
}

// Get returns an environment entry by name.
func (r *Registry) Get(name string) (*Entry, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}

	for _, p := range reg.Projects {
		if p.Name == name {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("environment '%s' not found", name)
}

// GetByRoot returns the entry registered for a project root.
func (r *Registry) GetByRoot(root string) (*Entry, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}

	for _, p := range reg.Projects {
		if p.Root == root {
			return &p, nil
		}
	}

	return nil, fmt.Errorf("no environment registered for %s", root)
}

// List returns all registered environments.
func (r *Registry) List() ([]Entry, error) {
	reg, err := r.Load()
	if err != nil {
		return nil, err
	}

	return reg.Projects, nil
}

// Remove unregisters an environment.
func (r *Registry) Remove(name string) error {
	reg, err := r.Load()
	if err != nil {
		return err
	}

	found := false
	remaining := make([]Entry, 0, len(reg.Projects))
	for _, p := range reg.Projects {
		if p.Name == name {
			found = true
		} else {
			remaining = append(remaining, p)
		}
	}

	if !found {
		return fmt.Errorf("environment '%s' not found", name)
	}

	reg.Projects = remaining

	// Clear active if this was the active environment
	active, _ := r.GetActive()
	if active == name {
		r.ClearActive()
	}

	return r.Save(reg)
}

// SetPython updates the interpreter pin recorded for an environment.
func (r *Registry) SetPython(name, python string) error {
	reg, err := r.Load()
	if err != nil {
		return err
	}

	for i := range reg.Projects {
		if reg.Projects[i].Name == name {
			reg.Projects[i].Python = python
			return r.Save(reg)
		}
	}

	return fmt.Errorf("environment '%s' not found", name)
}

// SetActive sets the active environment.
func (r *Registry) SetActive(name string) error {
	// Verify the environment exists
	_, err := r.Get(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := os.WriteFile(r.activePath, []byte(name), 0644); err != nil {
		return fmt.Errorf("write active file: %w", err)
	}

	return nil
}

// GetActive returns the name of the active environment.
func (r *Registry) GetActive() (string, error) {
	data, err := os.ReadFile(r.activePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read active file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// ClearActive removes the active environment setting.
func (r *Registry) ClearActive() error {
	if err := os.Remove(r.activePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove active file: %w", err)
	}
	return nil
}

// DataDir returns the data directory for a specific environment.
func (r *Registry) DataDir(name string) string {
	return filepath.Join(r.baseDir, "data", name)
}

// EnsureProject registers the project rooted at root if it is not
// already registered, derives a unique name from the directory and
// marks it active. Returns the entry either way.
func (r *Registry) EnsureProject(root, python, toolkitID, venvDir string) (*Entry, error) {
	if existing, err := r.GetByRoot(root); err == nil {
		return existing, nil
	}

	reg, err := r.Load()
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(reg.Projects))
	for _, p := range reg.Projects {
		taken[p.Name] = true
	}

	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		name = "default"
	}
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s-%d", filepath.Base(root), i)
	}

	entry := Entry{
		Name:    name,
		Root:    root,
		Python:  python,
		Toolkit: toolkitID,
		VenvDir: venvDir,
	}

	if err := r.Add(entry); err != nil {
		return nil, fmt.Errorf("register project: %w", err)
	}

	if err := r.SetActive(name); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}

	return r.Get(name)
}

// GetActiveOrCwd returns the active environment, falling back to the
// environment registered for the given working directory.
func (r *Registry) GetActiveOrCwd(cwd string) (*Entry, error) {
	active, err := r.GetActive()
	if err != nil {
		return nil, err
	}

	if active != "" {
		return r.Get(active)
	}

	entry, err := r.GetByRoot(cwd)
	if err != nil {
		return nil, fmt.Errorf("no active environment (run 'pyshell setup' in a project directory)")
	}
	return entry, nil
}

// DeleteData removes an environment's data directory.
func (r *Registry) DeleteData(name string) error {
	if err := os.RemoveAll(r.DataDir(name)); err != nil {
		return fmt.Errorf("remove environment data: %w", err)
	}
	return nil
}
