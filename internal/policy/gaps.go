package policy

import "strings"

// GapLabel names a structurally-detected missing check kind.
type GapLabel string

const (
	GapNoMaskPII       GapLabel = "no_mask_pii"
	GapNoProvenance    GapLabel = "no_provenance"
	GapNoMedicalPolicy GapLabel = "no_medical_policy"
)

// Gap is a derived fact: the named task is missing a safety-critical check
// kind. Gaps are never persisted; they are regenerated every run.
type Gap struct {
	Task string   `json:"task"`
	Gap  GapLabel `json:"gap"`
}

// GapRule flags a task that lacks Kind whenever Applies returns true.
// Rules are data, not branching code, so new obligations can be added
// without touching the detector. Rule evolution is additive only: existing
// coverage obligations are never removed.
type GapRule struct {
	Label   GapLabel
	Kind    CheckKind
	Applies func(task string) bool
}

// everyTask is the predicate for unconditional rules.
func everyTask(string) bool { return true }

// DefaultGapRules returns the fixed rule sequence applied to every task.
// The medical rule is a deliberate conservative pattern match on the task
// name, not semantic classification: a false positive fails safe.
func DefaultGapRules() []GapRule {
	return []GapRule{
		{Label: GapNoMaskPII, Kind: KindMaskPII, Applies: everyTask},
		{Label: GapNoProvenance, Kind: KindRequireProvenance, Applies: everyTask},
		{Label: GapNoMedicalPolicy, Kind: KindContentPolicy, Applies: func(task string) bool {
			return strings.Contains(task, "medical")
		}},
	}
}

// FindGaps applies the default rule sequence to the coverage matrix.
// Output order is deterministic: tasks sorted, rules in declaration order.
func FindGaps(matrix CoverageMatrix) []Gap {
	return FindGapsWith(matrix, DefaultGapRules())
}

// FindGapsWith applies an explicit rule sequence to the coverage matrix.
func FindGapsWith(matrix CoverageMatrix, rules []GapRule) []Gap {
	var gaps []Gap
	for _, task := range matrix.Tasks() {
		checks := matrix[task]
		for _, rule := range rules {
			if rule.Applies(task) && !checks.Has(rule.Kind) {
				gaps = append(gaps, Gap{Task: task, Gap: rule.Label})
			}
		}
	}
	return gaps
}
