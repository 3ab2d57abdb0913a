package pipeline

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures require a POSIX shell")
	}
}

func TestCommandStagePass(t *testing.T) {
	requirePOSIXShell(t)
	stage := NewCommandStage("lint", "sh", "-c", "echo clean")

	result := stage.Invoke(context.Background())
	if result.Name != "lint" {
		t.Errorf("Name = %q", result.Name)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if !strings.Contains(result.Output, "clean") {
		t.Errorf("Output = %q", result.Output)
	}
	if !strings.Contains(result.Command, "sh -c") {
		t.Errorf("Command = %q", result.Command)
	}
}

func TestCommandStageNonZeroExit(t *testing.T) {
	requirePOSIXShell(t)
	stage := NewCommandStage("vectors", "sh", "-c", "echo 3 vectors failed >&2; exit 4")

	result := stage.Invoke(context.Background())
	if result.ExitCode != 4 {
		t.Errorf("ExitCode = %d, want 4", result.ExitCode)
	}
	// Combined output captures stderr too.
	if !strings.Contains(result.Output, "vectors failed") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestCommandStageHonorsContextDeadline(t *testing.T) {
	requirePOSIXShell(t)
	// sleep runs as a grandchild holding the output pipe; the wait delay
	// must unblock Invoke shortly after the deadline instead of waiting
	// the full sleep out.
	stage := NewCommandStage("vectors", "sh", "-c", "sleep 5; echo done")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := stage.Invoke(ctx)
	elapsed := time.Since(start)

	if elapsed >= 3*time.Second {
		t.Fatalf("Invoke took %s, want prompt return after deadline", elapsed)
	}
	if result.ExitCode == 0 {
		t.Error("timed-out collaborator must record a non-zero stage result")
	}
}

func TestCommandStageMissingBinary(t *testing.T) {
	stage := NewCommandStage("lint", "definitely-not-a-real-binary-xyz")

	result := stage.Invoke(context.Background())
	if result.ExitCode == 0 {
		t.Error("missing collaborator must record a non-zero stage result")
	}
	if result.Output == "" {
		t.Error("missing collaborator must explain itself in the output")
	}
}

func TestCommandStageNoCommand(t *testing.T) {
	stage := NewCommandStage("lint")

	result := stage.Invoke(context.Background())
	if result.ExitCode == 0 {
		t.Error("empty command must record a non-zero stage result")
	}
}

func TestFuncStage(t *testing.T) {
	ok := NewFuncStage("coverage", "pap report", func(ctx context.Context) (string, error) {
		return "3 tasks", nil
	})
	result := ok.Invoke(context.Background())
	if result.ExitCode != 0 || result.Output != "3 tasks" {
		t.Errorf("result = %+v", result)
	}

	failing := NewFuncStage("coverage", "pap report", func(ctx context.Context) (string, error) {
		return "partial", errors.New("bad mapping")
	})
	result = failing.Invoke(context.Background())
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
	if !strings.Contains(result.Output, "partial") || !strings.Contains(result.Output, "bad mapping") {
		t.Errorf("Output = %q", result.Output)
	}
}
