package host

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/javanstorm/pyshell/internal/toolkit"
)

// Dependency represents a required external tool.
type Dependency struct {
	Name        string              // Tool name (e.g., "python3")
	Command     string              // Command to check on PATH
	Packages    map[string][]string // OS family -> package names
	Description string              // Human-readable description
}

// DependencyManager handles checking and installing host dependencies.
type DependencyManager struct {
	hostOS string // "arch", "ubuntu", "debian", "fedora", "macos", etc.
}

// NewDependencyManager creates a dependency manager for the current host.
func NewDependencyManager() *DependencyManager {
	return &DependencyManager{
		hostOS: detectHostOS(),
	}
}

// HostOS returns the detected host OS family.
func (m *DependencyManager) HostOS() string {
	return m.hostOS
}

// Base interpreter dependency. Debian-family installs split venv and
// pip out of the core python3 package.
var pythonDeps = []Dependency{
	{
		Name:        "python3",
		Command:     "python3",
		Description: "Python interpreter",
		Packages: map[string][]string{
			"arch":        {"python"},
			"manjaro":     {"python"},
			"endeavouros": {"python"},
			"ubuntu":      {"python3", "python3-venv", "python3-pip"},
			"debian":      {"python3", "python3-venv", "python3-pip"},
			"linuxmint":   {"python3", "python3-venv", "python3-pip"},
			"pop":         {"python3", "python3-venv", "python3-pip"},
			"fedora":      {"python3"},
			"rhel":        {"python3"},
			"centos":      {"python3"},
			"rocky":       {"python3"},
			"almalinux":   {"python3"},
			"opensuse":    {"python3"},
			"suse":        {"python3"},
			"alpine":      {"python3", "py3-pip"},
			"macos":       {"python3"},
		},
	},
}

// detectHostOS returns the host OS family.
func detectHostOS() string {
	if runtime.GOOS == "darwin" {
		return "macos"
	}

	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "linux"
	}
	return osFamilyFromRelease(string(data))
}

// osFamilyFromRelease parses /etc/os-release content into an OS family,
// preferring ID and falling back to ID_LIKE for derivatives.
func osFamilyFromRelease(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "ID=") {
			id := strings.TrimPrefix(line, "ID=")
			id = strings.Trim(id, "\"")
			if id != "" {
				return id
			}
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "ID_LIKE=") {
			idLike := strings.TrimPrefix(line, "ID_LIKE=")
			idLike = strings.Trim(idLike, "\"")
			if strings.Contains(idLike, "arch") {
				return "arch"
			}
			if strings.Contains(idLike, "debian") || strings.Contains(idLike, "ubuntu") {
				return "debian"
			}
			if strings.Contains(idLike, "fedora") || strings.Contains(idLike, "rhel") {
				return "fedora"
			}
			if strings.Contains(idLike, "suse") {
				return "opensuse"
			}
		}
	}

	return "linux"
}

// PackageManager maps the host OS family to its package manager.
func (m *DependencyManager) PackageManager() toolkit.PackageManager {
	return packageManagerFor(m.hostOS)
}

func packageManagerFor(hostOS string) toolkit.PackageManager {
	switch hostOS {
	case "arch", "manjaro", "endeavouros":
		return toolkit.Pacman
	case "ubuntu", "debian", "linuxmint", "pop":
		return toolkit.Apt
	case "fedora", "rhel", "centos", "rocky", "almalinux":
		return toolkit.Dnf
	case "opensuse", "suse":
		return toolkit.Zypper
	case "alpine":
		return toolkit.Apk
	case "macos":
		return toolkit.Brew
	default:
		return ""
	}
}

// CheckDependency checks if a dependency is installed.
func (m *DependencyManager) CheckDependency(dep Dependency) bool {
	_, err := exec.LookPath(dep.Command)
	return err == nil
}

// InstallCommand returns the copy-paste install command for a package
// set on this host, or empty when no package manager is known.
func (m *DependencyManager) InstallCommand(pkgs []string) string {
	if len(pkgs) == 0 {
		return ""
	}
	joined := strings.Join(pkgs, " ")

	switch m.PackageManager() {
	case toolkit.Pacman:
		return "sudo pacman -S --noconfirm " + joined
	case toolkit.Apt:
		return "sudo apt-get install -y " + joined
	case toolkit.Dnf:
		return "sudo dnf install -y " + joined
	case toolkit.Zypper:
		return "sudo zypper install -y " + joined
	case toolkit.Apk:
		return "sudo apk add " + joined
	case toolkit.Brew:
		return "brew install " + joined
	default:
		return ""
	}
}

// InstallPackages installs packages using the host package manager.
func (m *DependencyManager) InstallPackages(pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}

	var cmd *exec.Cmd
	switch m.PackageManager() {
	case toolkit.Pacman:
		cmd = exec.Command("sudo", append([]string{"pacman", "-S", "--noconfirm"}, pkgs...)...)
	case toolkit.Apt:
		cmd = exec.Command("sudo", append([]string{"apt-get", "install", "-y"}, pkgs...)...)
	case toolkit.Dnf:
		cmd = exec.Command("sudo", append([]string{"dnf", "install", "-y"}, pkgs...)...)
	case toolkit.Zypper:
		cmd = exec.Command("sudo", append([]string{"zypper", "install", "-y"}, pkgs...)...)
	case toolkit.Apk:
		cmd = exec.Command("sudo", append([]string{"apk", "add"}, pkgs...)...)
	case toolkit.Brew:
		cmd = exec.Command("brew", append([]string{"install"}, pkgs...)...)
	default:
		return fmt.Errorf("unsupported host OS: %s (install %s manually)", m.hostOS, strings.Join(pkgs, " "))
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Printf("Installing %s...\n", strings.Join(pkgs, " "))
	return cmd.Run()
}

// InstallDependency installs a dependency's packages for this host.
func (m *DependencyManager) InstallDependency(dep Dependency) error {
	pkgs, ok := dep.Packages[m.hostOS]
	if !ok || len(pkgs) == 0 {
		return fmt.Errorf("%s is not available on %s", dep.Name, m.hostOS)
	}
	return m.InstallPackages(pkgs)
}

// EnsureDependencies checks and installs required dependencies.
func (m *DependencyManager) EnsureDependencies(deps []Dependency) error {
	var missing []Dependency

	for _, dep := range deps {
		if !m.CheckDependency(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	fmt.Printf("Installing missing dependencies for %s...\n", m.hostOS)

	for _, dep := range missing {
		if err := m.InstallDependency(dep); err != nil {
			return fmt.Errorf("install %s: %w", dep.Name, err)
		}
	}

	return nil
}

// EnsurePythonDeps ensures the base interpreter is installed.
func EnsurePythonDeps() error {
	dm := NewDependencyManager()
	return dm.EnsureDependencies(pythonDeps)
}

// ToolkitPackages returns the host packages a toolkit needs here.
func (m *DependencyManager) ToolkitPackages(p toolkit.Provider) []string {
	return p.SystemPackages(m.PackageManager())
}

// InstallToolkit installs a toolkit's host packages.
func (m *DependencyManager) InstallToolkit(p toolkit.Provider) error {
	pkgs := m.ToolkitPackages(p)
	if len(pkgs) == 0 {
		return nil
	}
	return m.InstallPackages(pkgs)
}

// PythonInstallHint returns the install command for the interpreter on
// this host, for guided errors when no interpreter is found.
func (m *DependencyManager) PythonInstallHint() string {
	for _, dep := range pythonDeps {
		if pkgs, ok := dep.Packages[m.hostOS]; ok {
			return m.InstallCommand(pkgs)
		}
	}
	return m.InstallCommand([]string{"python3"})
}
