package host

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	r := NewExecRunner()

	stdout, stderr, code, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got := strings.TrimSpace(string(stdout)); got != "out" {
		t.Errorf("stdout = %q, want %q", got, "out")
	}
	if got := strings.TrimSpace(string(stderr)); got != "err" {
		t.Errorf("stderr = %q, want %q", got, "err")
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	r := NewExecRunner()

	_, _, code, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	if err == nil {
		t.Fatal("Run() should fail for nonzero exit")
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner()

	_, _, code, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("Run() should fail for missing binary")
	}
	if code != 127 {
		t.Errorf("exit code = %d, want 127", code)
	}
}

func TestRunChecked(t *testing.T) {
	r := NewExecRunner()

	out, err := RunChecked(context.Background(), r, "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("RunChecked() error = %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}

	_, err = RunChecked(context.Background(), r, "sh", "-c", "echo broken >&2; exit 2")
	if err == nil {
		t.Fatal("RunChecked() should fail")
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("error type = %T, want *RunError", err)
	}
	if runErr.ExitCode != 2 {
		t.Errorf("exit code = %d, want 2", runErr.ExitCode)
	}
	if !strings.Contains(runErr.Error(), "broken") {
		t.Errorf("error should carry stderr, got %q", runErr.Error())
	}
}
