// Package mutation drives the external mutation-case generator: the
// collaborator that produces adversarial input variants for a jurisdiction
// and reports, per variant, whether the policy incorrectly approved it.
package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/policyassurance/pap/internal/worker"
)

// How long after context expiry to keep waiting for a killed generator's
// output pipe. Grandchild processes can inherit the pipe and outlive the
// direct child; without a wait delay Output blocks until they exit.
const generatorWaitDelay = time.Second

// Outcome is one adversarial trial result. Opaque beyond Allowed: extra
// fields from the generator are carried through for the report but never
// interpreted.
type Outcome struct {
	Allowed bool   `json:"allowed"`
	CaseID  string `json:"case_id,omitempty"`
}

// CountAllowed returns how many trials the policy incorrectly approved.
func CountAllowed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Allowed {
			n++
		}
	}
	return n
}

// ParseOutcomes decodes the generator's JSON array output.
func ParseOutcomes(data []byte) ([]Outcome, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty mutation output")
	}
	var outcomes []Outcome
	if err := json.Unmarshal([]byte(trimmed), &outcomes); err != nil {
		return nil, fmt.Errorf("parse mutation output: %w", err)
	}
	return outcomes, nil
}

// Runner invokes the mutation-case generator command. Command is the
// executable plus any fixed leading arguments, configured per project.
type Runner struct {
	Command []string
}

// CommandLine renders the full invocation for a batch of the given size,
// for inclusion in stage records.
func (r *Runner) CommandLine(policyRoot, jurisdiction string, count int) string {
	return strings.Join(r.argv(policyRoot, jurisdiction, count), " ")
}

func (r *Runner) argv(policyRoot, jurisdiction string, count int) []string {
	argv := append([]string{}, r.Command...)
	return append(argv,
		"--policy-root", policyRoot,
		"--jurisdiction", jurisdiction,
		"--count", strconv.Itoa(count),
	)
}

// RunBatch executes one generator invocation producing count trials and
// returns the parsed outcomes along with the raw combined output.
func (r *Runner) RunBatch(ctx context.Context, policyRoot, jurisdiction string, count int) ([]Outcome, string, error) {
	if len(r.Command) == 0 {
		return nil, "", fmt.Errorf("mutation generator command not configured")
	}

	argv := r.argv(policyRoot, jurisdiction, count)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = generatorWaitDelay
	out, err := cmd.Output()
	raw := string(out)
	if err != nil {
		return nil, raw, fmt.Errorf("mutation generator: %w", err)
	}

	outcomes, err := ParseOutcomes(out)
	if err != nil {
		return nil, raw, err
	}
	return outcomes, raw, nil
}

// RunParallel fans count single-trial generator invocations out across a
// bounded worker pool (at most one worker per CPU). Each trial is an
// isolated process with its own copy of the policy inputs, so no shared
// state crosses trials. Trials cut short by context cancellation are
// recorded as not-allowed: an unfinished trial is assumed not to have
// leaked. A trial the generator itself failed to execute is a different
// matter and returns an error, so a broken generator can never pass the
// gate.
func (r *Runner) RunParallel(ctx context.Context, policyRoot, jurisdiction string, count int) ([]Outcome, string, error) {
	if len(r.Command) == 0 {
		return nil, "", fmt.Errorf("mutation generator command not configured")
	}
	if count <= 0 {
		return nil, "", nil
	}

	concurrency := runtime.NumCPU()
	if concurrency > count {
		concurrency = count
	}

	trials := make([]int, count)
	for i := range trials {
		trials[i] = i
	}

	pool := worker.NewPool[int, []Outcome](concurrency)
	results := pool.Process(ctx, trials, func(ctx context.Context, trial int) ([]Outcome, error) {
		outcomes, _, err := r.RunBatch(ctx, policyRoot, jurisdiction, 1)
		if err != nil {
			return nil, err
		}
		return outcomes, nil
	})

	var outcomes []Outcome
	var unfinished, failed int
	var firstErr error
	for _, res := range results {
		switch {
		case res.Err == nil:
			outcomes = append(outcomes, res.Value...)
		case errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded):
			unfinished++
			outcomes = append(outcomes, Outcome{Allowed: false, CaseID: fmt.Sprintf("trial-%d-unfinished", res.Index)})
		default:
			failed++
			if firstErr == nil {
				firstErr = res.Err
			}
		}
	}
	if failed > 0 {
		return nil, "", fmt.Errorf("%d of %d trials failed to execute: %w", failed, count, firstErr)
	}

	summary := fmt.Sprintf("%d trials, %d allowed, %d unfinished", count, CountAllowed(outcomes), unfinished)
	return outcomes, summary, nil
}
