package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/policyassurance/pap/internal/config"
	"github.com/policyassurance/pap/internal/policy"
	"github.com/policyassurance/pap/internal/render"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Coverage/gap report for a jurisdiction (non-gating)",
	Long: `Derive the coverage matrix and gap list for a jurisdiction without
running any collaborator stage. Exits 0 unless the policy bundle itself is
unreadable: gaps are informational here.`,
	RunE: runReport,
}

var (
	reportPolicyRoot   string
	reportJurisdiction string
	reportOutJSON      string
	reportOutMD        string
)

func init() {
	reportCmd.Flags().StringVar(&reportPolicyRoot, "policy-root", "", "Policy bundle root directory")
	reportCmd.Flags().StringVar(&reportJurisdiction, "jurisdiction", "", "Jurisdiction to analyze")
	reportCmd.Flags().StringVar(&reportOutJSON, "out-json", "", "Write coverage facts as JSON to this path")
	reportCmd.Flags().StringVar(&reportOutMD, "out-md", "", "Write coverage report as Markdown to this path")
	//nolint:errcheck // flag is registered above
	reportCmd.MarkFlagRequired("jurisdiction")
	rootCmd.AddCommand(reportCmd)
}

// coverageDocument is the JSON shape written by --out-json.
type coverageDocument struct {
	Jurisdiction string              `json:"jurisdiction"`
	Coverage     map[string][]string `json:"coverage"`
	Gaps         []policy.Gap        `json:"gaps"`
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(&config.Config{PolicyRoot: reportPolicyRoot})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pack, err := policy.Load(cfg.PolicyRoot, reportJurisdiction)
	if err != nil {
		return err
	}

	matrix, err := policy.BuildMatrix(pack)
	if err != nil {
		return err
	}
	gaps := policy.FindGaps(matrix)

	doc := buildCoverageDocument(pack.Jurisdiction, matrix, gaps)

	if reportOutJSON != "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode coverage: %w", err)
		}
		if err := os.WriteFile(reportOutJSON, data, 0600); err != nil {
			return fmt.Errorf("write %s: %w", reportOutJSON, err)
		}
	}

	if reportOutMD != "" {
		md := render.CoverageMarkdown(pack.Jurisdiction, matrix, gaps)
		if err := os.WriteFile(reportOutMD, []byte(md), 0600); err != nil {
			return fmt.Errorf("write %s: %w", reportOutMD, err)
		}
	}

	return printCoverage(doc, matrix, gaps)
}

// buildCoverageDocument flattens the matrix into its JSON shape.
func buildCoverageDocument(jurisdiction string, matrix policy.CoverageMatrix, gaps []policy.Gap) coverageDocument {
	doc := coverageDocument{
		Jurisdiction: jurisdiction,
		Coverage:     make(map[string][]string, len(matrix)),
		Gaps:         gaps,
	}
	for _, task := range matrix.Tasks() {
		kinds := matrix[task].Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		doc.Coverage[task] = names
	}
	return doc
}

// printCoverage writes coverage and gap tables to stdout.
func printCoverage(doc coverageDocument, matrix policy.CoverageMatrix, gaps []policy.Gap) error {
	if GetOutput() == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	table := render.NewTable(os.Stdout, "TASK", "CHECKS")
	for _, task := range matrix.Tasks() {
		kinds := matrix[task].Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		table.AddRow(task, strings.Join(names, ", "))
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(gaps) == 0 {
		fmt.Println("\nNo gaps detected.")
		return nil
	}
	fmt.Println()
	gapTable := render.NewTable(os.Stdout, "TASK", "GAP")
	for _, gap := range gaps {
		gapTable.AddRow(gap.Task, string(gap.Gap))
	}
	return gapTable.Render()
}
