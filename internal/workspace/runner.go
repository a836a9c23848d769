// Package workspace runs the databricks CLI and makes sense of its output.
package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
)

// DefaultBinary is the CLI looked up on PATH
const DefaultBinary = "databricks"

// system install locations preferred when running under an IDE-bundled CLI
var systemBinaries = []string{
	"/usr/local/bin/databricks",
	"/opt/homebrew/bin/databricks",
	"/usr/bin/databricks",
}

// Result is the captured output of one CLI invocation
type Result struct {
	Stdout   string // noise-filtered
	Stderr   string
	ExitCode int
}

// Runner executes CLI subcommands. stdin may be empty.
type Runner interface {
	Run(ctx context.Context, args []string, stdin string) (*Result, error)
}

// CommandError is a CLI invocation that failed
type CommandError struct {
	Args     []string
	ExitCode int
	Message  string
}

func (e *CommandError) Error() string {
	if len(e.Args) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s failed: %s", strings.Join(e.Args, " "), e.Message)
}

// ErrCLINotFound is wrapped when the CLI binary cannot be executed
var ErrCLINotFound = errors.New("databricks CLI not found")

// CLIRunner runs a real CLI binary
type CLIRunner struct {
	Binary string
	Env    []string // extra KEY=VALUE pairs
}

// NewCLIRunner returns a runner for binary, defaulting to DefaultBinary
func NewCLIRunner(binary string) *CLIRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &CLIRunner{Binary: binary}
}

// Run executes the CLI and returns filtered output. A non-zero exit is
// reported as *CommandError carrying the cleaned stderr.
func (r *CLIRunner) Run(ctx context.Context, args []string, stdin string) (*Result, error) {
	binary, env := r.resolve()
	internal.LogDebug("Running: %s %s", binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = env
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Stdout: FilterNoise(stdout.String()),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			internal.LogDebug("Command failed with code %d", res.ExitCode)
			return res, &CommandError{Args: args, ExitCode: res.ExitCode, Message: CleanErrorMessage(res.Stderr)}
		}
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return res, fmt.Errorf("%w: %s", ErrCLINotFound, binary)
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, &CommandError{Args: args, ExitCode: -1, Message: err.Error()}
	}

	if s := FilterNoise(res.Stderr); s != "" {
		internal.LogDebug("stderr: %s", s)
	}
	return res, nil
}

// resolve picks the binary and environment. Under an IDE-bundled CLI
// (DATABRICKS_CLI_UPSTREAM set) the system install is preferred and the
// newer-version re-exec is disabled.
func (r *CLIRunner) resolve() (string, []string) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	env := append(os.Environ(), r.Env...)

	if _, ok := os.LookupEnv("DATABRICKS_CLI_UPSTREAM"); ok {
		env = append(env, "DATABRICKS_CLI_DO_NOT_EXECUTE_NEWER_VERSION=1")
		if binary == DefaultBinary {
			for _, p := range systemBinaries {
				if _, err := os.Stat(p); err == nil {
					internal.LogDebug("Using system CLI at %s", p)
					binary = p
					break
				}
			}
		}
	}
	return binary, env
}
