package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProjectFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write project file: %v", err)
	}
}

func TestLoadProjectMissing(t *testing.T) {
	proj, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	if proj != nil {
		t.Errorf("LoadProject() = %+v, want nil for missing file", proj)
	}
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, `
name = "calculator"
python = "3.12"
toolkit = "tk"
manifest = "requirements.txt"
links = ["./vendor/widgets"]

[env]
APP_MODE = "dev"
`)

	proj, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject() error = %v", err)
	}
	if proj == nil {
		t.Fatal("LoadProject() returned nil")
	}

	if proj.Name != "calculator" {
		t.Errorf("Name = %q, want calculator", proj.Name)
	}
	if proj.Python != "3.12" {
		t.Errorf("Python = %q, want 3.12", proj.Python)
	}
	if proj.Env["APP_MODE"] != "dev" {
		t.Errorf("Env = %v, want APP_MODE=dev", proj.Env)
	}
	if len(proj.Links) != 1 || proj.Links[0] != "./vendor/widgets" {
		t.Errorf("Links = %v, want [./vendor/widgets]", proj.Links)
	}
}

func TestLoadProjectMalformed(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "python = [broken\n")

	if _, err := LoadProject(dir); err == nil {
		t.Error("LoadProject() should fail on malformed toml")
	}
}

func TestEffectiveMerge(t *testing.T) {
	global := &Config{
		DefaultPython: "3.11",
		Toolkit:       "tk",
		VenvDir:       ".venv",
		Manifest:      "requirements.txt",
	}

	tests := []struct {
		name        string
		proj        *Project
		wantPython  string
		wantToolkit string
		wantName    string
	}{
		{
			name:        "nil project uses globals",
			proj:        nil,
			wantPython:  "3.11",
			wantToolkit: "tk",
			wantName:    "myproj",
		},
		{
			name:        "project overrides win",
			proj:        &Project{Name: "calc", Python: "3.12", Toolkit: "qt"},
			wantPython:  "3.12",
			wantToolkit: "qt",
			wantName:    "calc",
		},
		{
			name:        "empty overrides defer",
			proj:        &Project{Manifest: "deps.txt"},
			wantPython:  "3.11",
			wantToolkit: "tk",
			wantName:    "myproj",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Effective(global, tt.proj, "/work/myproj")
			if s.Python != tt.wantPython {
				t.Errorf("Python = %q, want %q", s.Python, tt.wantPython)
			}
			if s.Toolkit != tt.wantToolkit {
				t.Errorf("Toolkit = %q, want %q", s.Toolkit, tt.wantToolkit)
			}
			if s.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", s.Name, tt.wantName)
			}
		})
	}
}

func TestSettingsPaths(t *testing.T) {
	s := Settings{Dir: "/work/calc", VenvDir: ".venv", Manifest: "requirements.txt"}

	if got, want := s.VenvPath(), filepath.Join("/work/calc", ".venv"); got != want {
		t.Errorf("VenvPath() = %q, want %q", got, want)
	}
	if got, want := s.ManifestPath(), filepath.Join("/work/calc", "requirements.txt"); got != want {
		t.Errorf("ManifestPath() = %q, want %q", got, want)
	}

	s.Manifest = "/abs/reqs.txt"
	if got := s.ManifestPath(); got != "/abs/reqs.txt" {
		t.Errorf("ManifestPath() = %q, want absolute passthrough", got)
	}
}
