package toolkit

import "path/filepath"

// GtkProvider implements Provider for GTK via PyGObject.
type GtkProvider struct {
	BaseProvider
}

// NewGtkProvider creates a new GTK provider.
func NewGtkProvider() *GtkProvider {
	return &GtkProvider{
		BaseProvider: BaseProvider{
			id:          GTK,
			name:        "GTK",
			probeModule: "gi",
		},
	}
}

// BindingPackages returns the pip packages providing the bindings.
func (p *GtkProvider) BindingPackages() []string {
	return []string{"PyGObject"}
}

// SystemPackages returns the host packages for GObject introspection
// and the GTK runtime.
func (p *GtkProvider) SystemPackages(pm PackageManager) []string {
	switch pm {
	case Apt:
		return []string{"python3-gi", "gir1.2-gtk-3.0"}
	case Dnf:
		return []string{"python3-gobject", "gtk3"}
	case Pacman:
		return []string{"python-gobject", "gtk3"}
	case Zypper:
		return []string{"python3-gobject", "typelib-1_0-Gtk-3_0"}
	case Apk:
		return []string{"py3-gobject3", "gtk+3.0"}
	case Brew:
		return []string{"pygobject3", "gtk+3"}
	default:
		return nil
	}
}

// EnvVars points GI_TYPELIB_PATH at the host's introspection typelibs.
func (p *GtkProvider) EnvVars(h Host) (Vars, error) {
	roots := h.LibRoots
	if len(roots) == 0 {
		roots = []string{
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/lib64",
			"/usr/lib",
			"/opt/homebrew/lib",
		}
	}

	for _, root := range roots {
		dir := filepath.Join(root, "girepository-1.0")
		if dirExists(dir) {
			return Vars{"GI_TYPELIB_PATH": dir}, nil
		}
	}
	return nil, &ErrLibraryNotFound{Toolkit: GTK, Lib: "girepository-1.0"}
}

func init() {
	Register(NewGtkProvider())
}
