package env

import (
	"os"
	"sort"
	"strings"

	"github.com/javanstorm/pyshell/internal/toolkit"
)

// Var is a single environment variable assignment.
type Var struct {
	Name  string
	Value string
}

// Activation is the set of variables that make a venv usable from a
// shell: the venv marker, the toolkit library paths and the search
// path changes. The order of Vars is stable so rendered scripts and
// test output are deterministic.
type Activation struct {
	// VenvDir is the absolute venv root, exported as VIRTUAL_ENV.
	VenvDir string

	// BinDir is prepended to PATH.
	BinDir string

	// Prompt is exported as VIRTUAL_ENV_PROMPT.
	Prompt string

	// PythonDirs are prepended to PYTHONPATH, already absolute.
	PythonDirs []string

	// Vars are the toolkit and project variables, sorted by name.
	Vars []Var
}

// NewActivation composes the activation for a venv. Toolkit variables
// and project extras are flattened into a stable order.
func NewActivation(venv Venv, name string, tkVars toolkit.Vars, extra map[string]string, pythonDirs []string) *Activation {
	a := &Activation{
		VenvDir:    venv.Dir,
		BinDir:     venv.BinDir(),
		Prompt:     "(" + name + ")",
		PythonDirs: pythonDirs,
	}

	for _, k := range sortedKeys(tkVars) {
		a.Vars = append(a.Vars, Var{Name: k, Value: tkVars[k]})
	}
	for _, k := range sortedKeys(extra) {
		a.Vars = append(a.Vars, Var{Name: k, Value: extra[k]})
	}
	a.Vars = append(a.Vars, Var{Name: "PYSHELL_ENV", Value: name})

	return a
}

func sortedKeys[M ~map[string]string](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value a composed variable will be set to.
// PATH and PYTHONPATH are reported without the inherited tail.
func (a *Activation) Lookup(name string) (string, bool) {
	switch name {
	case "VIRTUAL_ENV":
		return a.VenvDir, true
	case "VIRTUAL_ENV_PROMPT":
		return a.Prompt, true
	case "PATH":
		return a.BinDir, true
	case "PYTHONPATH":
		if len(a.PythonDirs) == 0 {
			return "", false
		}
		return strings.Join(a.PythonDirs, string(os.PathListSeparator)), true
	}
	for _, v := range a.Vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Environ returns base with the activation applied: composed variables
// replace any existing entries, BinDir is prepended to PATH and
// PythonDirs to PYTHONPATH.
func (a *Activation) Environ(base []string) []string {
	owned := map[string]bool{
		"VIRTUAL_ENV":        true,
		"VIRTUAL_ENV_PROMPT": true,
		"PATH":               true,
		"PYTHONPATH":         true,
	}
	for _, v := range a.Vars {
		owned[v.Name] = true
	}

	var oldPath, oldPythonPath string
	out := make([]string, 0, len(base)+len(a.Vars)+4)
	for _, kv := range base {
		name, value, _ := strings.Cut(kv, "=")
		switch name {
		case "PATH":
			oldPath = value
		case "PYTHONPATH":
			oldPythonPath = value
		}
		if owned[name] {
			continue
		}
		out = append(out, kv)
	}

	sep := string(os.PathListSeparator)

	out = append(out, "VIRTUAL_ENV="+a.VenvDir)
	for _, v := range a.Vars {
		out = append(out, v.Name+"="+v.Value)
	}

	if len(a.PythonDirs) > 0 || oldPythonPath != "" {
		dirs := append([]string{}, a.PythonDirs...)
		if oldPythonPath != "" {
			dirs = append(dirs, oldPythonPath)
		}
		out = append(out, "PYTHONPATH="+strings.Join(dirs, sep))
	}

	path := a.BinDir
	if oldPath != "" {
		path += sep + oldPath
	}
	out = append(out, "PATH="+path)
	out = append(out, "VIRTUAL_ENV_PROMPT="+a.Prompt)

	return out
}

// Script renders eval-able POSIX shell that applies the activation to
// the calling shell, for use as eval "$(pyshell export)".
func (a *Activation) Script() string {
	var b strings.Builder

	writeVar := func(name, value string) {
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(value)
		b.WriteString("\nexport ")
		b.WriteString(name)
		b.WriteString("\n")
	}

	writeVar("VIRTUAL_ENV", shellQuote(a.VenvDir))
	for _, v := range a.Vars {
		writeVar(v.Name, shellQuote(v.Value))
	}

	if len(a.PythonDirs) > 0 {
		joined := strings.Join(a.PythonDirs, string(os.PathListSeparator))
		b.WriteString(`_PYSHELL_OLD_PYTHONPATH="${PYTHONPATH-}"` + "\n")
		writeVar("PYTHONPATH", shellQuote(joined)+`"${PYTHONPATH:+:${PYTHONPATH}}"`)
	}

	b.WriteString(`_PYSHELL_OLD_PATH="$PATH"` + "\n")
	writeVar("PATH", shellQuote(a.BinDir)+`:"$PATH"`)
	writeVar("VIRTUAL_ENV_PROMPT", shellQuote(a.Prompt))

	// Clear the shell's command cache so the venv python wins.
	b.WriteString("hash -r 2>/dev/null || true\n")

	return b.String()
}

// DeactivateScript renders the inverse of Script: search paths are
// restored from the values saved at activation and the composed
// variables are unset.
func (a *Activation) DeactivateScript() string {
	var b strings.Builder

	b.WriteString("if [ -n \"${_PYSHELL_OLD_PATH-}\" ]; then\n")
	b.WriteString("    PATH=\"$_PYSHELL_OLD_PATH\"\n")
	b.WriteString("    export PATH\n")
	b.WriteString("fi\n")
	b.WriteString("unset _PYSHELL_OLD_PATH\n")

	if len(a.PythonDirs) > 0 {
		b.WriteString("if [ -n \"${_PYSHELL_OLD_PYTHONPATH-}\" ]; then\n")
		b.WriteString("    PYTHONPATH=\"$_PYSHELL_OLD_PYTHONPATH\"\n")
		b.WriteString("    export PYTHONPATH\n")
		b.WriteString("else\n")
		b.WriteString("    unset PYTHONPATH\n")
		b.WriteString("fi\n")
		b.WriteString("unset _PYSHELL_OLD_PYTHONPATH\n")
	}

	b.WriteString("unset VIRTUAL_ENV\n")
	b.WriteString("unset VIRTUAL_ENV_PROMPT\n")
	for _, v := range a.Vars {
		b.WriteString("unset " + v.Name + "\n")
	}

	b.WriteString("hash -r 2>/dev/null || true\n")

	return b.String()
}

// shellQuote wraps s in single quotes, escaping embedded quotes so the
// result is safe to eval.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
