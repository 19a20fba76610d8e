package interpreter

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"3", Version{3, 0, 0}, false},
		{"3.12", Version{3, 12, 0}, false},
		{"3.12.4", Version{3, 12, 4}, false},
		{" 3.11.9 ", Version{3, 11, 9}, false},
		{"", Version{}, true},
		{"three", Version{}, true},
		{"3.12.4.1", Version{}, true},
		{"3.-1", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"Python 3.12.4\n", Version{3, 12, 4}, false},
		{"Python 3.13.0rc1", Version{3, 13, 0}, false},
		{"Python 3.11.2+", Version{3, 11, 2}, false},
		{"bash: python: not found", Version{}, true},
		{"", Version{}, true},
	}

	for _, tt := range tests {
		got, err := ParseVersionOutput(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseVersionOutput(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseVersionOutput(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVersionOrdering(t *testing.T) {
	a := Version{3, 12, 4}
	b := Version{3, 9, 18}

	if !a.AtLeast(b) {
		t.Error("3.12.4 should be at least 3.9.18")
	}
	if b.AtLeast(a) {
		t.Error("3.9.18 should not be at least 3.12.4")
	}
	if !a.AtLeast(a) {
		t.Error("version should be at least itself")
	}
	if a.Compare(b) != 1 || b.Compare(a) != -1 || a.Compare(a) != 0 {
		t.Error("Compare ordering wrong")
	}
	if a.Series() != "3.12" {
		t.Errorf("Series() = %q, want %q", a.Series(), "3.12")
	}
}

func TestSpecCandidateNames(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{"no pin", Spec{}, []string{"python3", "python"}},
		{"series pin", Spec{Pin: "3.12"}, []string{"python3.12", "python3", "python"}},
		{"patch pin", Spec{Pin: "3.12.4"}, []string{"python3.12", "python3", "python"}},
		{"major pin", Spec{Pin: "3"}, []string{"python3", "python"}},
		{"explicit names", Spec{Names: []string{"pypy3"}}, []string{"pypy3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.CandidateNames()
			if len(got) != len(tt.want) {
				t.Fatalf("CandidateNames() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("CandidateNames()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSpecMatches(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		v    Version
		want bool
	}{
		{"empty matches all", Spec{}, Version{3, 8, 0}, true},
		{"series pin match", Spec{Pin: "3.12"}, Version{3, 12, 7}, true},
		{"series pin mismatch", Spec{Pin: "3.12"}, Version{3, 11, 9}, false},
		{"patch pin exact", Spec{Pin: "3.12.4"}, Version{3, 12, 4}, true},
		{"patch pin other patch", Spec{Pin: "3.12.4"}, Version{3, 12, 5}, false},
		{"major pin", Spec{Pin: "3"}, Version{3, 7, 0}, true},
		{"min version pass", Spec{MinVersion: Version{3, 10, 0}}, Version{3, 12, 0}, true},
		{"min version fail", Spec{MinVersion: Version{3, 10, 0}}, Version{3, 9, 18}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Matches(tt.v); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestSpecValidate(t *testing.T) {
	if err := (Spec{Pin: "3.x"}).Validate(); !errors.Is(err, ErrBadVersion) {
		t.Errorf("bad pin error = %v, want ErrBadVersion", err)
	}
	if err := (Spec{Pin: "3.9", MinVersion: Version{3, 12, 0}}).Validate(); !errors.Is(err, ErrBadSpec) {
		t.Errorf("conflicting spec error = %v, want ErrBadSpec", err)
	}
	if err := (Spec{Pin: "3.12", MinVersion: Version{3, 10, 0}}).Validate(); err != nil {
		t.Errorf("compatible spec error = %v, want nil", err)
	}
	if err := (Spec{}).Validate(); err != nil {
		t.Errorf("empty spec error = %v, want nil", err)
	}
}

func TestVersionedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"python", true},
		{"python3", true},
		{"python3.12", true},
		{"python3.9", true},
		{"python3.", false},
		{"python3.12-config", false},
		{"python2", false},
		{"pydoc3", false},
	}

	for _, tt := range tests {
		if got := versionedName(tt.name); got != tt.want {
			t.Errorf("versionedName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// fakeHost wires a pathLocator to a canned set of interpreters.
func fakeHost(pythons map[string]string) *pathLocator {
	l := newPathLocator("fake", nil)
	l.lookPath = func(name string) (string, error) {
		if path, ok := pythons["lookup:"+name]; ok {
			return path, nil
		}
		return "", fmt.Errorf("%s not found", name)
	}
	l.run = func(_ context.Context, path string, args ...string) (string, error) {
		if len(args) == 1 && args[0] == "--version" {
			if out, ok := pythons["version:"+path]; ok {
				return out, nil
			}
			return "", errors.New("exec failed")
		}
		return "", nil
	}
	return l
}

func TestFindHonorsPin(t *testing.T) {
	l := fakeHost(map[string]string{
		"lookup:python3":        "/usr/bin/python3",
		"lookup:python3.12":     "/usr/bin/python3.12",
		"version:/usr/bin/python3":    "Python 3.9.18\n",
		"version:/usr/bin/python3.12": "Python 3.12.4\n",
	})

	py, err := l.Find(context.Background(), Spec{Pin: "3.12"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if py.Path != "/usr/bin/python3.12" {
		t.Errorf("Find() path = %s, want /usr/bin/python3.12", py.Path)
	}
	if py.Version.Series() != "3.12" {
		t.Errorf("Find() version = %s, want 3.12 series", py.Version)
	}
}

func TestFindFallsBackToDefault(t *testing.T) {
	l := fakeHost(map[string]string{
		"lookup:python3":           "/usr/bin/python3",
		"version:/usr/bin/python3": "Python 3.11.9\n",
	})

	py, err := l.Find(context.Background(), Spec{})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if py.Version != (Version{3, 11, 9}) {
		t.Errorf("Find() version = %v, want 3.11.9", py.Version)
	}
}

func TestFindReportsNotFound(t *testing.T) {
	l := fakeHost(map[string]string{
		"lookup:python3":           "/usr/bin/python3",
		"version:/usr/bin/python3": "Python 3.9.18\n",
	})

	_, err := l.Find(context.Background(), Spec{Pin: "3.12"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}
