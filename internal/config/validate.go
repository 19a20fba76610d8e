package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/javanstorm/pyshell/internal/toolkit"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = can't proceed, false = will be ignored
}

// ValidateSettings checks merged settings against host capabilities.
// Returns a list of validation errors/warnings.
func ValidateSettings(s Settings) []ValidationError {
	var errors []ValidationError

	// The environment must live inside the project directory.
	if filepath.IsAbs(s.VenvDir) || strings.HasPrefix(s.VenvDir, "..") {
		errors = append(errors, ValidationError{
			Field:   "VenvDir",
			Message: fmt.Sprintf("environment directory %q must be a name relative to the project root", s.VenvDir),
			Fatal:   true,
		})
	}

	if s.Toolkit != "" && !toolkit.IsRegistered(toolkit.ID(s.Toolkit)) {
		errors = append(errors, ValidationError{
			Field:   "Toolkit",
			Message: fmt.Sprintf("unknown toolkit %q, available: %v", s.Toolkit, toolkit.List()),
			Fatal:   true,
		})
	}

	// GUI toolkits need a display server to be of any use.
	if s.Toolkit != "" && s.Toolkit != string(toolkit.Headless) && !HasDisplay() {
		errors = append(errors, ValidationError{
			Field:   "Toolkit",
			Message: "no display server detected (DISPLAY/WAYLAND_DISPLAY unset); GUI applications will not start",
			Fatal:   false,
		})
	}

	for key := range s.Env {
		if key == "" || strings.ContainsAny(key, "= \t") {
			errors = append(errors, ValidationError{
				Field:   "Env",
				Message: fmt.Sprintf("invalid environment variable name %q", key),
				Fatal:   true,
			})
		}
	}

	return errors
}

// HasDisplay reports whether a display server is reachable.
func HasDisplay() bool {
	if runtime.GOOS == "darwin" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Configuration warnings:\n")
	for _, e := range errors {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}

// HasFatal reports whether any validation error is fatal.
func HasFatal(errors []ValidationError) bool {
	for _, e := range errors {
		if e.Fatal {
			return true
		}
	}
	return false
}
