package pipeline

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Exit code recorded when a stage could not be executed at all (command
// missing, context cancelled) as opposed to the collaborator itself failing.
const exitCodeNotRun = -1

// How long after context expiry to keep waiting for a killed collaborator's
// output pipes. Grandchild processes can inherit the pipes and outlive the
// direct child; without a wait delay CombinedOutput blocks until they exit.
const collaboratorWaitDelay = time.Second

// Stage is one independently-invoked unit of the pipeline. Collaborators are
// opaque: a stage yields an exit code and captured output, nothing more, so
// new collaborators can be added without touching the orchestrator.
type Stage interface {
	Name() string
	Invoke(ctx context.Context) StageResult
}

// CommandStage invokes an external collaborator as a child process and
// captures its combined output.
type CommandStage struct {
	name string
	argv []string
}

// NewCommandStage creates a stage running the given command line.
func NewCommandStage(name string, argv ...string) *CommandStage {
	return &CommandStage{name: name, argv: argv}
}

// Name returns the stage name.
func (s *CommandStage) Name() string { return s.name }

// CommandLine renders the invocation for stage records.
func (s *CommandStage) CommandLine() string { return strings.Join(s.argv, " ") }

// Invoke spawns the collaborator, waits, and captures combined output.
// A crashed or missing collaborator becomes a non-zero stage result, never
// an abort: the orchestrator runs every stage regardless.
func (s *CommandStage) Invoke(ctx context.Context) StageResult {
	result := StageResult{Name: s.name, Command: s.CommandLine()}
	if len(s.argv) == 0 {
		result.ExitCode = exitCodeNotRun
		result.Output = "no command configured"
		return result
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.WaitDelay = collaboratorWaitDelay
	out, err := cmd.CombinedOutput()
	result.Output = string(out)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = exitCodeNotRun
			if result.Output != "" {
				result.Output += "\n"
			}
			result.Output += err.Error()
		}
	}
	return result
}

// FuncStage runs in-process work under the same exit-code contract as a
// command stage. Used for the coverage/gap report stage.
type FuncStage struct {
	name    string
	command string
	fn      func(ctx context.Context) (string, error)
}

// NewFuncStage creates an in-process stage. The command string is purely
// descriptive, for stage records.
func NewFuncStage(name, command string, fn func(ctx context.Context) (string, error)) *FuncStage {
	return &FuncStage{name: name, command: command, fn: fn}
}

// Name returns the stage name.
func (s *FuncStage) Name() string { return s.name }

// Invoke runs the wrapped function; an error becomes exit code 1 with the
// error text as output.
func (s *FuncStage) Invoke(ctx context.Context) StageResult {
	result := StageResult{Name: s.name, Command: s.command}
	out, err := s.fn(ctx)
	result.Output = out
	if err != nil {
		result.ExitCode = 1
		if result.Output != "" {
			result.Output += "\n"
		}
		result.Output += err.Error()
	}
	return result
}
