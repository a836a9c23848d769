package workspace

import (
	"context"
	"errors"
	"testing"
)

func TestCLIRunner_Run(t *testing.T) {
	r := NewCLIRunner("sh")
	ctx := context.Background()

	res, err := r.Run(ctx, []string{"-c", "echo 'Databricks CLI v0.1 banner'; echo ok"}, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "ok" {
		t.Errorf("Stdout = %q, want ok", res.Stdout)
	}

	res, err = r.Run(ctx, []string{"-c", "cat"}, "s3cret")
	if err != nil {
		t.Fatalf("Run() with stdin error = %v", err)
	}
	if res.Stdout != "s3cret" {
		t.Errorf("Stdout = %q, want stdin echoed", res.Stdout)
	}
}

func TestCLIRunner_NonZeroExit(t *testing.T) {
	r := NewCLIRunner("sh")
	_, err := r.Run(context.Background(), []string{"-c", "echo 'Error: scope limit reached' >&2; exit 3"}, "")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run() error = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}
	if cmdErr.Message != "Error: scope limit reached" {
		t.Errorf("Message = %q", cmdErr.Message)
	}
}

func TestCLIRunner_MissingBinary(t *testing.T) {
	r := NewCLIRunner("/nonexistent/databricks-cli")
	_, err := r.Run(context.Background(), []string{"version"}, "")
	if !errors.Is(err, ErrCLINotFound) {
		t.Errorf("Run() error = %v, want ErrCLINotFound", err)
	}
}

func TestNewCLIRunner_Default(t *testing.T) {
	if r := NewCLIRunner(""); r.Binary != DefaultBinary {
		t.Errorf("Binary = %q, want %q", r.Binary, DefaultBinary)
	}
}
