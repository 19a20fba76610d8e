// Package host detects host capabilities and runs host commands for
// environment provisioning.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner abstracts subprocess execution so provisioning logic can
// be tested without a live interpreter.
type CommandRunner interface {
	// Run executes the command and returns captured stdout, stderr and
	// the exit code. Exit code 127 means the binary was not found.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int32, err error)

	// Stream executes the command with stdout/stderr attached to the
	// user's terminal. Used for long operations like pip install.
	Stream(ctx context.Context, name string, args ...string) error
}

// ExecRunner is the real CommandRunner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner that executes commands on the host.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := int32(0)
	if err != nil {
		var execErr *exec.Error
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &execErr):
			exitCode = 127
		case errors.As(err, &exitErr):
			exitCode = int32(exitErr.ExitCode())
		default:
			exitCode = -1
		}
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

func (r *ExecRunner) Stream(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunError describes a failed host command with enough context to debug
// it from the error string alone.
type RunError struct {
	Name     string
	Args     []string
	ExitCode int32
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("run %s %s: exit %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// RunChecked wraps CommandRunner.Run, converting non-zero exits into a
// RunError carrying the captured stderr.
func RunChecked(ctx context.Context, r CommandRunner, name string, args ...string) ([]byte, error) {
	stdout, stderr, code, err := r.Run(ctx, name, args...)
	if err != nil {
		return stdout, &RunError{
			Name:     name,
			Args:     args,
			ExitCode: code,
			Stderr:   string(stderr),
			Err:      err,
		}
	}
	return stdout, nil
}
