package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManifestAbsent(t *testing.T) {
	m := Manifest{Path: filepath.Join(t.TempDir(), "requirements.txt")}

	if m.Exists() {
		t.Error("Exists should be false for a missing manifest")
	}

	sum, err := m.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if sum != "" {
		t.Errorf("Fingerprint = %q, want empty for missing manifest", sum)
	}

	changed, _, err := m.Changed("whatever")
	if err != nil {
		t.Fatalf("Changed failed: %v", err)
	}
	if changed {
		t.Error("a missing manifest should never report changed")
	}
}

func TestManifestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(path, []byte("customtkinter==5.2.2\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := Manifest{Path: path}
	sum, err := m.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if len(sum) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(sum))
	}

	// Same content, same fingerprint
	again, err := m.Fingerprint()
	if err != nil {
		t.Fatalf("second Fingerprint failed: %v", err)
	}
	if again != sum {
		t.Errorf("fingerprint not stable: %q vs %q", again, sum)
	}

	// Different content, different fingerprint
	if err := os.WriteFile(path, []byte("customtkinter==5.2.2\npillow\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	modified, err := m.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint after edit failed: %v", err)
	}
	if modified == sum {
		t.Error("fingerprint should change when content changes")
	}
}

func TestManifestChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(path, []byte("pillow\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := Manifest{Path: path}
	sum, err := m.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	// Unchanged against its own fingerprint
	changed, got, err := m.Changed(sum)
	if err != nil {
		t.Fatalf("Changed failed: %v", err)
	}
	if changed {
		t.Error("manifest should be unchanged against its own fingerprint")
	}
	if got != sum {
		t.Errorf("Changed returned fingerprint %q, want %q", got, sum)
	}

	// Changed against an empty record (never synced)
	changed, _, err = m.Changed("")
	if err != nil {
		t.Fatalf("Changed failed: %v", err)
	}
	if !changed {
		t.Error("manifest should report changed when nothing was recorded")
	}
}

func TestManifestPackages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	content := `# GUI deps
customtkinter==5.2.2

darkdetect>=0.8
-r extra.txt
   # indented comment
pillow
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := Manifest{Path: path}
	pkgs, err := m.Packages()
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}

	want := []string{"customtkinter==5.2.2", "darkdetect>=0.8", "pillow"}
	if len(pkgs) != len(want) {
		t.Fatalf("got %d packages %v, want %d", len(pkgs), pkgs, len(want))
	}
	for i := range want {
		if pkgs[i] != want[i] {
			t.Errorf("package[%d] = %q, want %q", i, pkgs[i], want[i])
		}
	}
}

func TestManifestPackagesAbsent(t *testing.T) {
	m := Manifest{Path: filepath.Join(t.TempDir(), "requirements.txt")}

	pkgs, err := m.Packages()
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}
	if pkgs != nil {
		t.Errorf("Packages = %v, want nil for missing manifest", pkgs)
	}
}
