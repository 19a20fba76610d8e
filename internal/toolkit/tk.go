package toolkit

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// tkLibRoots are the roots scanned for versioned tcl/tk library
// directories, covering the major distro layouts.
var tkLibRoots = []string{
	"/usr/share/tcltk",
	"/usr/lib",
	"/usr/share",
	"/usr/local/lib",
	"/opt/homebrew/lib",
}

// TkProvider implements Provider for Tcl/Tk, the toolkit behind tkinter
// and customtkinter.
type TkProvider struct {
	BaseProvider
}

// NewTkProvider creates a new Tk provider.
func NewTkProvider() *TkProvider {
	return &TkProvider{
		BaseProvider: BaseProvider{
			id:          Tk,
			name:        "Tcl/Tk",
			probeModule: "tkinter",
		},
	}
}

// SystemPackages returns the host packages providing tkinter and the
// Tk runtime for the given package manager.
func (p *TkProvider) SystemPackages(pm PackageManager) []string {
	switch pm {
	case Apt:
		return []string{"python3-tk", "tk"}
	case Dnf:
		return []string{"python3-tkinter", "tk"}
	case Pacman:
		return []string{"tk"}
	case Zypper:
		return []string{"python3-tk", "tk"}
	case Apk:
		return []string{"python3-tkinter", "tk"}
	case Brew:
		return []string{"python-tk", "tcl-tk"}
	default:
		return nil
	}
}

// EnvVars locates the versioned tcl and tk script libraries and points
// TCL_LIBRARY and TK_LIBRARY at them. When both toolkits share an
// installed version the matching pair wins; otherwise the newest of
// each is used.
func (p *TkProvider) EnvVars(h Host) (Vars, error) {
	roots := h.LibRoots
	if len(roots) == 0 {
		roots = tkLibRoots
	}

	tcls := findVersionedLibs(roots, "tcl")
	tks := findVersionedLibs(roots, "tk")

	if len(tcls) == 0 {
		return nil, &ErrLibraryNotFound{Toolkit: Tk, Lib: "tcl"}
	}
	if len(tks) == 0 {
		return nil, &ErrLibraryNotFound{Toolkit: Tk, Lib: "tk"}
	}

	tclDir, tkDir := pairByVersion(tcls, tks)
	return Vars{
		"TCL_LIBRARY": tclDir,
		"TK_LIBRARY":  tkDir,
	}, nil
}

// libDir is a versioned library directory candidate.
type libDir struct {
	path  string
	major int
	minor int
}

func (d libDir) newer(o libDir) bool {
	if d.major != o.major {
		return d.major > o.major
	}
	return d.minor > o.minor
}

// findVersionedLibs scans the roots for directories named
// <prefix><major>[.<minor>], e.g. tcl8.6 or tk9.0.
func findVersionedLibs(roots []string, prefix string) []libDir {
	var dirs []libDir
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			major, minor, ok := parseLibVersion(e.Name(), prefix)
			if !ok {
				continue
			}
			dirs = append(dirs, libDir{
				path:  filepath.Join(root, e.Name()),
				major: major,
				minor: minor,
			})
		}
	}
	return dirs
}

// pairByVersion picks the tcl and tk directories to export: the highest
// version present in both sets, falling back to the newest of each.
func pairByVersion(tcls, tks []libDir) (string, string) {
	bestTcl := tcls[0]
	for _, d := range tcls[1:] {
		if d.newer(bestTcl) {
			bestTcl = d
		}
	}
	bestTk := tks[0]
	for _, d := range tks[1:] {
		if d.newer(bestTk) {
			bestTk = d
		}
	}

	// Prefer a version installed for both.
	var pairTcl, pairTk *libDir
	for i := range tcls {
		for j := range tks {
			if tcls[i].major == tks[j].major && tcls[i].minor == tks[j].minor {
				if pairTcl == nil || tcls[i].newer(*pairTcl) {
					pairTcl, pairTk = &tcls[i], &tks[j]
				}
			}
		}
	}
	if pairTcl != nil {
		return pairTcl.path, pairTk.path
	}
	return bestTcl.path, bestTk.path
}

// parseLibVersion parses "tcl8.6" style names into version components.
func parseLibVersion(name, prefix string) (major, minor int, ok bool) {
	rest, found := strings.CutPrefix(name, prefix)
	if !found || rest == "" {
		return 0, 0, false
	}
	majorStr, minorStr, hasMinor := strings.Cut(rest, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return 0, 0, false
	}
	if hasMinor {
		minor, err = strconv.Atoi(minorStr)
		if err != nil || minor < 0 {
			return 0, 0, false
		}
	}
	return major, minor, true
}

func init() {
	Register(NewTkProvider())
}
