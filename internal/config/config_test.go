package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	if cfg.Toolkit != "tk" {
		t.Errorf("Toolkit should be %q, got %q", "tk", cfg.Toolkit)
	}

	if cfg.VenvDir != ".venv" {
		t.Errorf("VenvDir should be %q, got %q", ".venv", cfg.VenvDir)
	}

	if cfg.Manifest != "requirements.txt" {
		t.Errorf("Manifest should be %q, got %q", "requirements.txt", cfg.Manifest)
	}

	// No pin by default: newest interpreter wins
	if cfg.DefaultPython != "" {
		t.Errorf("DefaultPython should be empty, got %q", cfg.DefaultPython)
	}

	if cfg.Quiet {
		t.Error("Quiet should be false by default")
	}

	if cfg.GUIWidth <= 0 || cfg.GUIHeight <= 0 {
		t.Errorf("GUI size should be positive, got %dx%d", cfg.GUIWidth, cfg.GUIHeight)
	}
}

func TestKnownKeys(t *testing.T) {
	keys := Keys()
	if len(keys) == 0 {
		t.Fatal("Keys() should not be empty")
	}

	for _, key := range []string{"toolkit", "venv_dir", "manifest", "default_python"} {
		if !IsKnownKey(key) {
			t.Errorf("IsKnownKey(%q) = false, want true", key)
		}
	}

	if IsKnownKey("theme") {
		t.Error("IsKnownKey(theme) = true, want false")
	}
	if IsKnownKey("") {
		t.Error("IsKnownKey(\"\") = true, want false")
	}
}
