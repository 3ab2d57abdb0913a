// Package pipeline sequences the policy assurance stages and folds their
// outcomes into a single report: one artifact per run, always produced,
// describing exactly what happened.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/policyassurance/pap/internal/ratchet"
)

// StageResult records one completed stage, in the order stages ran.
// Immutable once the stage completes.
type StageResult struct {
	Name     string `json:"name"`
	ExitCode int    `json:"exit_code"`
	Command  string `json:"command"`
	Output   string `json:"output"`
}

// Report is the single persisted artifact of a pipeline run and the sole
// input to rendering. MutationViolation is populated only when the mutation
// gate breached; an unbreached verdict is surfaced in the run summary but
// never occupies the hard-gate key.
type Report struct {
	RunID             string           `json:"run_id"`
	GeneratedAt       time.Time        `json:"generated_at"`
	Jurisdiction      string           `json:"jurisdiction"`
	Steps             []StageResult    `json:"steps"`
	MutationViolation *ratchet.Verdict `json:"mutation_violation,omitempty"`
}

// Passed reports the overall verdict: every stage exited zero and the
// mutation gate did not breach.
func (r *Report) Passed() bool {
	for _, step := range r.Steps {
		if step.ExitCode != 0 {
			return false
		}
	}
	return r.MutationViolation == nil
}

// FailedSteps returns the names of stages that exited non-zero.
func (r *Report) FailedSteps() []string {
	var failed []string
	for _, step := range r.Steps {
		if step.ExitCode != 0 {
			failed = append(failed, step.Name)
		}
	}
	return failed
}

// Save writes the report as indented JSON via temp-file + rename, so a
// concurrent reader never observes a torn report.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// LoadReport reads a previously saved report. Rendering a loaded report
// never re-executes any stage.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &report, nil
}
