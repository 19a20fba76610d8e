// Package toolkit provides GUI-toolkit-specific configuration for
// Python environment provisioning.
package toolkit

import "fmt"

// ID identifies a GUI toolkit.
type ID string

const (
	Tk       ID = "tk"
	Qt       ID = "qt"
	GTK      ID = "gtk"
	Headless ID = "headless"
)

// AllToolkits returns all supported toolkit IDs.
func AllToolkits() []ID {
	return []ID{Tk, Qt, GTK, Headless}
}

// PackageManager identifies a host package manager.
type PackageManager string

const (
	Apt    PackageManager = "apt"
	Dnf    PackageManager = "dnf"
	Pacman PackageManager = "pacman"
	Zypper PackageManager = "zypper"
	Apk    PackageManager = "apk"
	Brew   PackageManager = "brew"
)

// Vars is a set of environment variables a toolkit needs exported.
type Vars map[string]string

// Host carries the discovery inputs a provider needs to derive its
// environment variables.
type Host struct {
	// LibRoots are candidate roots scanned for versioned toolkit
	// library directories. Empty means the platform defaults.
	LibRoots []string

	// SitePackages is the venv's site-packages directory, for toolkits
	// that ship their native libraries inside the binding package.
	SitePackages string
}

// Provider defines the interface for toolkit-specific configuration.
type Provider interface {
	// ID returns the unique identifier for this toolkit.
	ID() ID

	// Name returns the human-readable name.
	Name() string

	// ProbeModule returns the Python module whose importability proves
	// the bindings are present (e.g. "tkinter").
	ProbeModule() string

	// BindingPackages returns pip packages that provide the Python
	// bindings, empty when the standard library covers them.
	BindingPackages() []string

	// SystemPackages returns host packages required by this toolkit
	// for the given package manager.
	SystemPackages(pm PackageManager) []string

	// EnvVars derives the toolkit's library-path variables from what is
	// installed on the host.
	EnvVars(h Host) (Vars, error)
}

// BaseProvider implements common Provider functionality.
type BaseProvider struct {
	id          ID
	name        string
	probeModule string
}

// ID returns the toolkit identifier.
func (p *BaseProvider) ID() ID {
	return p.id
}

// Name returns the human-readable name.
func (p *BaseProvider) Name() string {
	return p.name
}

// ProbeModule returns the import used to detect the bindings.
func (p *BaseProvider) ProbeModule() string {
	return p.probeModule
}

// BindingPackages returns no packages by default.
// Override in providers whose bindings come from pip.
func (p *BaseProvider) BindingPackages() []string {
	return nil
}

// ErrLibraryNotFound is returned when a toolkit's library directory
// cannot be located on the host.
type ErrLibraryNotFound struct {
	Toolkit ID
	Lib     string
}

func (e *ErrLibraryNotFound) Error() string {
	return fmt.Sprintf("%s library %q not found on this host", e.Toolkit, e.Lib)
}
