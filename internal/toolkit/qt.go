package toolkit

import (
	"os"
	"path/filepath"
)

// QtProvider implements Provider for Qt via the PySide6 bindings.
type QtProvider struct {
	BaseProvider
}

// NewQtProvider creates a new Qt provider.
func NewQtProvider() *QtProvider {
	return &QtProvider{
		BaseProvider: BaseProvider{
			id:          Qt,
			name:        "Qt",
			probeModule: "PySide6",
		},
	}
}

// BindingPackages returns the pip packages providing the bindings.
// PySide6 bundles its own Qt runtime.
func (p *QtProvider) BindingPackages() []string {
	return []string{"PySide6"}
}

// SystemPackages returns the host libraries Qt needs to open a display.
func (p *QtProvider) SystemPackages(pm PackageManager) []string {
	switch pm {
	case Apt:
		return []string{"libegl1", "libxkbcommon0"}
	case Dnf:
		return []string{"libglvnd-egl", "libxkbcommon"}
	case Pacman:
		return []string{"libxkbcommon"}
	case Zypper:
		return []string{"libxkbcommon0"}
	default:
		return nil
	}
}

// EnvVars points Qt's plugin and QML search paths into the bundled
// runtime inside site-packages. Nothing is exported until PySide6 is
// installed in the environment.
func (p *QtProvider) EnvVars(h Host) (Vars, error) {
	vars := Vars{}
	if h.SitePackages == "" {
		return vars, nil
	}

	qtRoot := filepath.Join(h.SitePackages, "PySide6", "Qt")
	if plugins := filepath.Join(qtRoot, "plugins"); dirExists(plugins) {
		vars["QT_PLUGIN_PATH"] = plugins
	}
	if qml := filepath.Join(qtRoot, "qml"); dirExists(qml) {
		vars["QML2_IMPORT_PATH"] = qml
	}
	return vars, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func init() {
	Register(NewQtProvider())
}
