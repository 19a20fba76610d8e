package host

import (
	"strings"
	"testing"

	"github.com/javanstorm/pyshell/internal/toolkit"
)

func TestOSFamilyFromRelease(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"ubuntu",
			"NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n",
			"ubuntu",
		},
		{
			"quoted id",
			"ID=\"opensuse-leap\"\n",
			"opensuse-leap",
		},
		{
			"derivative falls back to id_like debian",
			"NAME=Zorin\nID_LIKE=\"ubuntu debian\"\n",
			"debian",
		},
		{
			"derivative falls back to id_like arch",
			"ID_LIKE=arch\n",
			"arch",
		},
		{
			"derivative falls back to id_like fedora",
			"ID_LIKE=\"rhel fedora\"\n",
			"fedora",
		},
		{
			"derivative falls back to id_like suse",
			"ID_LIKE=\"suse opensuse\"\n",
			"opensuse",
		},
		{
			"unknown",
			"NAME=Mystery\n",
			"linux",
		},
		{
			"empty",
			"",
			"linux",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := osFamilyFromRelease(tt.content)
			if got != tt.want {
				t.Errorf("osFamilyFromRelease() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackageManagerFor(t *testing.T) {
	tests := []struct {
		hostOS string
		want   toolkit.PackageManager
	}{
		{"arch", toolkit.Pacman},
		{"manjaro", toolkit.Pacman},
		{"ubuntu", toolkit.Apt},
		{"debian", toolkit.Apt},
		{"fedora", toolkit.Dnf},
		{"rocky", toolkit.Dnf},
		{"opensuse", toolkit.Zypper},
		{"alpine", toolkit.Apk},
		{"macos", toolkit.Brew},
		{"plan9", toolkit.PackageManager("")},
	}

	for _, tt := range tests {
		t.Run(tt.hostOS, func(t *testing.T) {
			if got := packageManagerFor(tt.hostOS); got != tt.want {
				t.Errorf("packageManagerFor(%q) = %q, want %q", tt.hostOS, got, tt.want)
			}
		})
	}
}

func TestInstallCommand(t *testing.T) {
	tests := []struct {
		hostOS string
		pkgs   []string
		want   string
	}{
		{"ubuntu", []string{"python3-tk", "tk"}, "sudo apt-get install -y python3-tk tk"},
		{"arch", []string{"tk"}, "sudo pacman -S --noconfirm tk"},
		{"fedora", []string{"python3-tkinter"}, "sudo dnf install -y python3-tkinter"},
		{"macos", []string{"python-tk"}, "brew install python-tk"},
		{"ubuntu", nil, ""},
		{"plan9", []string{"tk"}, ""},
	}

	for _, tt := range tests {
		m := &DependencyManager{hostOS: tt.hostOS}
		got := m.InstallCommand(tt.pkgs)
		if got != tt.want {
			t.Errorf("InstallCommand(%v) on %s = %q, want %q", tt.pkgs, tt.hostOS, got, tt.want)
		}
	}
}

func TestPythonInstallHint(t *testing.T) {
	m := &DependencyManager{hostOS: "debian"}
	hint := m.PythonInstallHint()
	if !strings.Contains(hint, "python3-venv") {
		t.Errorf("debian hint should include python3-venv, got %q", hint)
	}

	m = &DependencyManager{hostOS: "arch"}
	hint = m.PythonInstallHint()
	if !strings.Contains(hint, "pacman") {
		t.Errorf("arch hint should use pacman, got %q", hint)
	}
}

func TestToolkitPackages(t *testing.T) {
	tk, err := toolkit.Get(toolkit.Tk)
	if err != nil {
		t.Fatalf("get tk provider: %v", err)
	}

	m := &DependencyManager{hostOS: "ubuntu"}
	pkgs := m.ToolkitPackages(tk)
	found := false
	for _, p := range pkgs {
		if p == "python3-tk" {
			found = true
		}
	}
	if !found {
		t.Errorf("ubuntu tk packages = %v, want python3-tk present", pkgs)
	}

	m = &DependencyManager{hostOS: "plan9"}
	if pkgs := m.ToolkitPackages(tk); pkgs != nil {
		t.Errorf("unknown host packages = %v, want nil", pkgs)
	}
}
