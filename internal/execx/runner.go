package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// TimeoutExitCode is the sentinel exit code reported when a command is
// terminated because its deadline expired.
const TimeoutExitCode = 124

// Result captures the outcome of an external command invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// TimedOut reports whether the command was killed by its deadline.
func (r Result) TimedOut() bool {
	return r.ExitCode == TimeoutExitCode
}

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, timeout time.Duration) (Result, error)
}

// CommandRunner executes real OS processes.
type CommandRunner struct{}

// NewCommandRunner returns a Runner backed by os/exec.
func NewCommandRunner() CommandRunner {
	return CommandRunner{}
}

// Run executes the binary with the given arguments, capturing stdout and
// stderr. A non-zero exit is reported through Result, never as an error.
// When timeout is positive and expires, the child is killed and the result
// carries TimeoutExitCode. The returned error is reserved for failures to
// launch the process at all.
func (CommandRunner) Run(ctx context.Context, binary string, args []string, timeout time.Duration) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{}, errors.New("execx: empty binary name")
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Give stdio a moment to drain after the kill signal before Wait
	// forcibly closes the pipes.
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		result.ExitCode = 0
		return result, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = TimeoutExitCode
		return result, nil
	}
	if errors.Is(runCtx.Err(), context.Canceled) {
		return result, runCtx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, fmt.Errorf("execx: run %s: %w", binary, err)
}
