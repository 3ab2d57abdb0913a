package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/policyassurance/pap/internal/pipeline"
	"github.com/policyassurance/pap/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a saved pipeline report as Markdown",
	Long: `Render a previously saved pipeline report. Rendering is a pure
function of the report file: no stage is re-executed, so a failed render can
be retried without rerunning expensive mutation trials.

When GITHUB_STEP_SUMMARY is set, the Markdown is also appended to that file.`,
	RunE: runRender,
}

var renderIn string

func init() {
	renderCmd.Flags().StringVar(&renderIn, "in", "", "Path to a saved report.json")
	//nolint:errcheck // flag is registered above
	renderCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	report, err := pipeline.LoadReport(renderIn)
	if err != nil {
		return err
	}

	md, err := render.Markdown(report)
	if err != nil {
		return err
	}

	fmt.Print(md)

	if summaryPath := os.Getenv("GITHUB_STEP_SUMMARY"); summaryPath != "" {
		if err := appendToFile(summaryPath, md); err != nil {
			return fmt.Errorf("append job summary: %w", err)
		}
		VerbosePrintf("appended report to %s\n", summaryPath)
	}
	return nil
}

// appendToFile appends content to path, creating it if needed.
func appendToFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}
