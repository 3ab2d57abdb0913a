// Package policy loads jurisdiction policy packs and derives coverage facts
// from them: which safety-check kinds each task type declares, and which
// safety-critical kinds are missing.
package policy

import "strings"

// CheckKind is a safety-check category. The vocabulary is closed: a kind
// outside this set is a configuration error, never a silent no-op.
type CheckKind string

const (
	KindRequireProvenance CheckKind = "require_provenance"
	KindMaskPII           CheckKind = "mask_pii"
	KindBudgetLimit       CheckKind = "budget_limit"
	KindAgeGate           CheckKind = "age_gate"
	KindContentPolicy     CheckKind = "content_policy"
)

// AllKinds returns every valid check kind.
func AllKinds() []CheckKind {
	return []CheckKind{
		KindRequireProvenance,
		KindMaskPII,
		KindBudgetLimit,
		KindAgeGate,
		KindContentPolicy,
	}
}

// validKinds is the lookup set backing ParseKind.
var validKinds = func() map[string]CheckKind {
	m := make(map[string]CheckKind)
	for _, k := range AllKinds() {
		m[string(k)] = k
	}
	return m
}()

// ParseKind normalizes a kind name to its canonical form.
// Returns empty string if the kind is not recognized.
func ParseKind(name string) CheckKind {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if kind, ok := validKinds[normalized]; ok {
		return kind
	}
	return ""
}

// IsValid returns true if the kind is a recognized check kind.
func (k CheckKind) IsValid() bool {
	return ParseKind(string(k)) != ""
}
