package execx

import (
	"context"
	"testing"
	"time"
)

func TestRunCapturesOutput(t *testing.T) {
	runner := NewCommandRunner()
	result, err := runner.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code: %d", result.ExitCode)
	}
	if result.Stdout != "out\n" {
		t.Fatalf("unexpected stdout: %q", result.Stdout)
	}
	if result.Stderr != "err\n" {
		t.Fatalf("unexpected stderr: %q", result.Stderr)
	}
}

func TestRunReportsNonZeroExitWithoutError(t *testing.T) {
	runner := NewCommandRunner()
	result, err := runner.Run(context.Background(), "sh", []string{"-c", "echo fail >&2; exit 3"}, 0)
	if err != nil {
		t.Fatalf("Run should not error on non-zero exit: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("unexpected exit code: %d", result.ExitCode)
	}
	if result.Stderr != "fail\n" {
		t.Fatalf("unexpected stderr: %q", result.Stderr)
	}
}

func TestRunTimeoutReportsSentinel(t *testing.T) {
	runner := NewCommandRunner()
	start := time.Now()
	result, err := runner.Run(context.Background(), "sleep", []string{"30"}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.TimedOut() || result.ExitCode != TimeoutExitCode {
		t.Fatalf("expected timeout sentinel, got %d", result.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("child was not killed promptly: %v", elapsed)
	}
}

func TestRunMissingBinaryErrors(t *testing.T) {
	runner := NewCommandRunner()
	if _, err := runner.Run(context.Background(), "clipforge-no-such-binary", nil, 0); err == nil {
		t.Fatalf("expected launch error")
	}
	if _, err := runner.Run(context.Background(), "", nil, 0); err == nil {
		t.Fatalf("expected error for empty binary")
	}
}
