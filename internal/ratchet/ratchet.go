// Package ratchet implements regression gates over "badness" metrics.
//
// Two distinct strategies, deliberately not unified:
//
//   - FixedCapRatchet: breach iff the current count exceeds a flat,
//     operator-supplied cap. Used for the mutation-fuzzer gate.
//   - BaselineRatchet: breach iff the current count exceeds the count in a
//     stored baseline snapshot. The baseline moves only via an explicit
//     init/write operation, never automatically.
package ratchet

import (
	"fmt"

	"github.com/policyassurance/pap/internal/mutation"
)

// MetricAllowedMutations is the tracked-metric name under which a run's
// incorrectly-approved trial count is snapshotted.
const MetricAllowedMutations = "allowed_mutations"

// Verdict is the result of a fixed-cap evaluation.
// Breached is true iff AllowedCount > Cap.
type Verdict struct {
	AllowedCount int  `json:"allowed_count"`
	Cap          int  `json:"cap"`
	Breached     bool `json:"breached"`
}

// String renders the verdict for human-readable summaries.
func (v Verdict) String() string {
	if v.Breached {
		return fmt.Sprintf("%d adversarial cases allowed, cap is %d", v.AllowedCount, v.Cap)
	}
	return fmt.Sprintf("%d/%d adversarial cases allowed", v.AllowedCount, v.Cap)
}

// FixedCapRatchet gates mutation outcomes against a flat cap. The cap is the
// sole breach threshold: it is NOT added to any stored baseline. The cap is
// an operator-supplied tolerance, which keeps the gate deterministic and
// auditable.
type FixedCapRatchet struct{}

// Evaluate counts incorrectly-approved trials and compares against the cap.
// Order of outcomes is irrelevant.
func (FixedCapRatchet) Evaluate(outcomes []mutation.Outcome, cap int) Verdict {
	allowed := mutation.CountAllowed(outcomes)
	return Verdict{
		AllowedCount: allowed,
		Cap:          cap,
		Breached:     allowed > cap,
	}
}

// Regression describes one tracked metric that got worse versus its baseline.
type Regression struct {
	Metric   string `json:"metric"`
	Baseline int    `json:"baseline"`
	Current  int    `json:"current"`
}

// String renders the regression for CLI output.
func (r Regression) String() string {
	return fmt.Sprintf("%s regressed: %d -> %d", r.Metric, r.Baseline, r.Current)
}

// BaselineRatchet gates monotonically-undesirable metrics against a stored
// baseline snapshot.
type BaselineRatchet struct {
	Baseline *BaselineStore
}

// Check compares the current value of a metric against the baseline.
// Returns a non-nil Regression when current > baseline. A metric absent from
// the baseline never regresses: the first recorded value becomes its floor
// once the operator writes the baseline forward.
func (r *BaselineRatchet) Check(metric string, current int) (*Regression, error) {
	baseline, ok, err := r.Baseline.Read(metric)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if current > baseline {
		return &Regression{Metric: metric, Baseline: baseline, Current: current}, nil
	}
	return nil, nil
}
