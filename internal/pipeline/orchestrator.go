package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/policyassurance/pap/internal/mutation"
	"github.com/policyassurance/pap/internal/policy"
	"github.com/policyassurance/pap/internal/ratchet"
)

// Stage names, in execution order.
const (
	StageCoverage = "coverage-report"
	StageLint     = "policy-lint"
	StageVectors  = "test-vectors"
	StageMutation = "mutation-fuzzer"
	StageTimeout  = "timeout"
)

// Orchestrator runs the four assurance stages in fixed order and folds their
// outcomes into one Report. Stages are sequenced rather than parallelized so
// captured output ordering stays deterministic; only the mutation trials
// fan out internally.
type Orchestrator struct {
	// Pack is the already-loaded policy bundle. Loading happens before the
	// orchestrator exists: config errors are fatal and yield no report.
	Pack *policy.PolicyPack

	// PolicyRoot is passed through to collaborator commands.
	PolicyRoot string

	// LintCommand and VectorCommand are the collaborator executables plus
	// fixed leading arguments.
	LintCommand   []string
	VectorCommand []string

	// Mutator drives the mutation-case generator.
	Mutator *mutation.Runner

	// Mutations is the adversarial batch size N.
	Mutations int

	// Cap is the operator-supplied tolerance for incorrectly-approved trials.
	Cap int

	// ParallelTrials switches the mutation stage from one batch invocation
	// to a per-trial worker-pool fan-out.
	ParallelTrials bool

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration
}

// Run executes every stage and always returns a report: a run never crashes
// without an artifact. The returned verdict is the mutation gate result for
// trend tracking; it is attached to the report only when breached.
func (o *Orchestrator) Run(ctx context.Context) (*Report, *ratchet.Verdict) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	report := &Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Jurisdiction: o.Pack.Jurisdiction,
	}

	// Stages 1-3: coverage report, lint, test vectors. A non-zero exit does
	// not abort the run; every stage result lands in the report so a single
	// artifact reflects the full picture.
	for _, stage := range o.stages() {
		if ctx.Err() != nil {
			break
		}
		report.Steps = append(report.Steps, stage.Invoke(ctx))
	}

	// Stage 4: mutation batch plus the fixed-cap gate.
	var verdict *ratchet.Verdict
	if ctx.Err() == nil {
		result, v := o.runMutationStage(ctx)
		report.Steps = append(report.Steps, result)
		verdict = &v
		if v.Breached {
			report.MutationViolation = &v
		}
	}

	// On timeout the partial stage list still ships, with a synthetic
	// marker so the report explains itself.
	if ctx.Err() != nil {
		report.Steps = append(report.Steps, StageResult{
			Name:     StageTimeout,
			ExitCode: 1,
			Output:   fmt.Sprintf("wall-clock timeout after %s; %d of 4 stages completed", o.Timeout, len(report.Steps)),
		})
	}

	return report, verdict
}

// stages builds the first three pipeline stages.
func (o *Orchestrator) stages() []Stage {
	collabArgs := []string{
		"--policy-root", o.PolicyRoot,
		"--jurisdiction", o.Pack.Jurisdiction,
	}

	lint := append(append([]string{}, o.LintCommand...), collabArgs...)
	vectors := append(append([]string{}, o.VectorCommand...), collabArgs...)

	return []Stage{
		NewFuncStage(StageCoverage, "pap report", o.coverageStage),
		NewCommandStage(StageLint, lint...),
		NewCommandStage(StageVectors, vectors...),
	}
}

// coverageStage derives the coverage matrix and gap list for the report.
// Gaps are informational here: they do not fail the stage.
func (o *Orchestrator) coverageStage(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	matrix, err := policy.BuildMatrix(o.Pack)
	if err != nil {
		return "", err
	}
	gaps := policy.FindGaps(matrix)
	return policy.CoverageSummary(matrix, gaps), nil
}

// runMutationStage invokes the generator, parses outcomes, and evaluates the
// fixed-cap gate. Malformed or missing generator output is treated as the
// worst case (allowed count = cap + 1): parse failure must never be
// interpreted as success.
func (o *Orchestrator) runMutationStage(ctx context.Context) (StageResult, ratchet.Verdict) {
	result := StageResult{
		Name:    StageMutation,
		Command: o.Mutator.CommandLine(o.PolicyRoot, o.Pack.Jurisdiction, o.Mutations),
	}

	var outcomes []mutation.Outcome
	var raw string
	var err error
	if o.ParallelTrials {
		outcomes, raw, err = o.Mutator.RunParallel(ctx, o.PolicyRoot, o.Pack.Jurisdiction, o.Mutations)
	} else {
		outcomes, raw, err = o.Mutator.RunBatch(ctx, o.PolicyRoot, o.Pack.Jurisdiction, o.Mutations)
	}

	result.Output = raw
	if err != nil {
		result.ExitCode = 1
		if result.Output != "" {
			result.Output += "\n"
		}
		result.Output += err.Error()
		return result, ratchet.Verdict{
			AllowedCount: o.Cap + 1,
			Cap:          o.Cap,
			Breached:     true,
		}
	}

	return result, ratchet.FixedCapRatchet{}.Evaluate(outcomes, o.Cap)
}
