package env

import (
	"errors"
	"fmt"

	"github.com/javanstorm/pyshell/internal/toolkit"
)

// ErrNotSetup is returned when an operation needs a provisioned
// environment and none exists yet.
var ErrNotSetup = errors.New("environment not set up (run 'pyshell setup')")

// VenvUnsupportedError reports a host interpreter that cannot create
// virtual environments.
type VenvUnsupportedError struct {
	Python string
}

func (e *VenvUnsupportedError) Error() string {
	return fmt.Sprintf("interpreter %s has no venv module", e.Python)
}

// MissingToolkitError reports a host interpreter without the GUI
// toolkit bindings the environment needs.
type MissingToolkitError struct {
	Python  string
	Toolkit toolkit.ID
	Module  string
}

func (e *MissingToolkitError) Error() string {
	return fmt.Sprintf("interpreter %s cannot import %s (required by toolkit %s)", e.Python, e.Module, e.Toolkit)
}
