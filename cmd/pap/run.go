package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/policyassurance/pap/internal/config"
	"github.com/policyassurance/pap/internal/mutation"
	"github.com/policyassurance/pap/internal/pipeline"
	"github.com/policyassurance/pap/internal/policy"
	"github.com/policyassurance/pap/internal/ratchet"
	"github.com/policyassurance/pap/internal/render"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full assurance pipeline for a jurisdiction",
	Long: `Run all four assurance stages in fixed order: coverage/gap report,
policy-syntax lint, named-test-vector gate, and the adversarial mutation
batch. Every stage always runs; the report always reflects the full picture.

Exits 0 only if every stage passed and the mutation gate did not breach.`,
	RunE: runPipeline,
}

var (
	runPolicyRoot   string
	runJurisdiction string
	runMutations    int
	runCap          int
	runOutJSON      string
	runTimeout      time.Duration
	runParallel     bool
)

func init() {
	runCmd.Flags().StringVar(&runPolicyRoot, "policy-root", "", "Policy bundle root directory")
	runCmd.Flags().StringVar(&runJurisdiction, "jurisdiction", "", "Jurisdiction to certify")
	runCmd.Flags().IntVar(&runMutations, "mutations", 0, "Adversarial trial count (default from config)")
	runCmd.Flags().IntVar(&runCap, "max-mutation-passes", -1, "Tolerated incorrectly-approved trials (default from config)")
	runCmd.Flags().StringVar(&runOutJSON, "out-json", "", "Report output path (default: <state>/<jurisdiction>/report.json)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Wall-clock limit for the whole run (0 = none)")
	runCmd.Flags().BoolVar(&runParallel, "parallel-trials", false, "Fan mutation trials out across a worker pool")
	//nolint:errcheck // flag is registered above
	runCmd.MarkFlagRequired("jurisdiction")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(&config.Config{
		PolicyRoot: runPolicyRoot,
		Verbose:    GetVerbose(),
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mutations := cfg.Mutation.Count
	if runMutations > 0 {
		mutations = runMutations
	}
	maxPasses := cfg.Mutation.MaxAllowed
	if runCap >= 0 {
		maxPasses = runCap
	}
	parallel := cfg.Mutation.Parallel || runParallel

	// Config errors are fatal: no stage runs, no partial report is written.
	pack, err := policy.Load(cfg.PolicyRoot, runJurisdiction)
	if err != nil {
		return err
	}
	VerbosePrintf("loaded policy pack for %s from %s\n", pack.Jurisdiction, cfg.PolicyRoot)

	orch := &pipeline.Orchestrator{
		Pack:           pack,
		PolicyRoot:     cfg.PolicyRoot,
		LintCommand:    cfg.Collaborators.Lint,
		VectorCommand:  cfg.Collaborators.Vectors,
		Mutator:        &mutation.Runner{Command: cfg.Collaborators.Mutator},
		Mutations:      mutations,
		Cap:            maxPasses,
		ParallelTrials: parallel,
		Timeout:        runTimeout,
	}

	report, verdict := orch.Run(cmd.Context())

	outPath := runOutJSON
	if outPath == "" {
		outPath = cfg.ReportPath(runJurisdiction)
	}
	if err := report.Save(outPath); err != nil {
		return err
	}
	VerbosePrintf("report written to %s\n", outPath)

	// Snapshot the run's badness metric so the baseline ratchet can track it.
	if verdict != nil {
		store := ratchet.NewBaselineStore(cfg.MetricsPath(runJurisdiction))
		if err := store.Write(ratchet.MetricAllowedMutations, verdict.AllowedCount); err != nil {
			return err
		}
	}

	if err := printRunSummary(report, verdict); err != nil {
		return err
	}

	if !report.Passed() {
		return fmt.Errorf("pipeline failed: %s", strings.Join(failureReasons(report), "; "))
	}
	return nil
}

// printRunSummary writes the run result in the selected output format.
func printRunSummary(report *pipeline.Report, verdict *ratchet.Verdict) error {
	if GetOutput() == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	table := render.NewTable(os.Stdout, "STEP", "EXIT", "COMMAND")
	table.TruncateLast(60)
	for _, step := range report.Steps {
		table.AddRow(step.Name, fmt.Sprintf("%d", step.ExitCode), step.Command)
	}
	if err := table.Render(); err != nil {
		return err
	}

	if verdict != nil {
		fmt.Printf("\nMutation gate: %s\n", verdict)
	}
	if report.Passed() {
		fmt.Println("Result: PASS")
	} else {
		fmt.Println("Result: FAIL")
	}
	return nil
}

// failureReasons lists why the run failed, for the final error message.
func failureReasons(report *pipeline.Report) []string {
	var reasons []string
	for _, name := range report.FailedSteps() {
		reasons = append(reasons, fmt.Sprintf("stage %s exited non-zero", name))
	}
	if v := report.MutationViolation; v != nil {
		reasons = append(reasons, fmt.Sprintf("mutation gate breached (%d > cap %d)", v.AllowedCount, v.Cap))
	}
	return reasons
}
