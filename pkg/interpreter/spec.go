package interpreter

import "strings"

// Spec constrains which interpreter Find may return.
type Spec struct {
	// Pin restricts the version: "3" matches any 3.x, "3.12" any 3.12.x,
	// "3.12.4" exactly that patch release. Empty means no restriction.
	Pin string

	// MinVersion is the lowest acceptable version. Zero means no floor.
	MinVersion Version

	// Names overrides the candidate executable names tried on PATH.
	// Empty means the default ladder (pythonMAJOR.MINOR, python3, python).
	Names []string
}

// Validate performs basic validation of the spec.
func (s Spec) Validate() error {
	if s.Pin == "" {
		return nil
	}
	pin, err := ParseVersion(s.Pin)
	if err != nil {
		return err
	}
	if s.MinVersion != (Version{}) && !maxPinned(pin, s.Pin).AtLeast(s.MinVersion) {
		return ErrBadSpec
	}
	return nil
}

// CandidateNames returns executable names to try, most specific first.
func (s Spec) CandidateNames() []string {
	if len(s.Names) > 0 {
		return s.Names
	}
	names := []string{}
	if s.Pin != "" {
		parts := strings.Split(s.Pin, ".")
		if len(parts) >= 2 {
			names = append(names, "python"+parts[0]+"."+parts[1])
		}
	}
	return append(names, "python3", "python")
}

// Matches reports whether a version satisfies the spec.
func (s Spec) Matches(v Version) bool {
	if s.Pin != "" && !satisfiesPin(s.Pin, v) {
		return false
	}
	if s.MinVersion != (Version{}) && !v.AtLeast(s.MinVersion) {
		return false
	}
	return true
}

// satisfiesPin checks a version against a pin at the pin's own precision:
// "3" matches 3.*, "3.12" matches 3.12.*, "3.12.4" only itself.
func satisfiesPin(pin string, v Version) bool {
	pv, err := ParseVersion(pin)
	if err != nil {
		return false
	}
	switch strings.Count(pin, ".") {
	case 0:
		return v.Major == pv.Major
	case 1:
		return v.Major == pv.Major && v.Minor == pv.Minor
	default:
		return v == pv
	}
}

// maxPinned returns the highest version the pin can denote, used when
// checking pin/minimum consistency.
func maxPinned(pv Version, pin string) Version {
	switch strings.Count(pin, ".") {
	case 0:
		return Version{Major: pv.Major, Minor: 999, Patch: 999}
	case 1:
		return Version{Major: pv.Major, Minor: pv.Minor, Patch: 999}
	default:
		return pv
	}
}
