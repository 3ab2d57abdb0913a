// Package render turns pipeline reports and coverage facts into
// human-readable documents. Rendering is a pure function of its input:
// it never re-executes a stage.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/policyassurance/pap/internal/pipeline"
	"github.com/policyassurance/pap/internal/policy"
)

// Pass/fail icons for step tables.
const (
	iconPass = "✅"
	iconFail = "❌"
)

// Markdown renders the full pipeline report: header, step table, mutation
// summary, and a collapsible raw-JSON block for debugging.
func Markdown(report *pipeline.Report) (string, error) {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	data := reportTemplateData{
		Generated:    report.GeneratedAt.UTC().Format(time.RFC3339),
		RunID:        report.RunID,
		Jurisdiction: report.Jurisdiction,
		Passed:       report.Passed(),
		RawJSON:      string(raw),
	}
	for _, step := range report.Steps {
		icon := iconPass
		if step.ExitCode != 0 {
			icon = iconFail
		}
		data.Steps = append(data.Steps, stepRow{
			Name:    step.Name,
			Icon:    icon,
			Command: step.Command,
		})
	}
	if v := report.MutationViolation; v != nil {
		data.Mutation = fmt.Sprintf("%s %d adversarial cases allowed (cap %d)", iconFail, v.AllowedCount, v.Cap)
	} else {
		data.Mutation = fmt.Sprintf("%s No mutation violations", iconPass)
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return b.String(), nil
}

// reportTemplateData holds all data for the report template.
type reportTemplateData struct {
	Generated    string
	RunID        string
	Jurisdiction string
	Passed       bool
	Steps        []stepRow
	Mutation     string
	RawJSON      string
}

type stepRow struct {
	Name    string
	Icon    string
	Command string
}

const reportTemplate = `# Policy Assurance Report

**Jurisdiction:** {{ .Jurisdiction }}
**Run:** {{ .RunID }}
**Generated:** {{ .Generated }}
**Verdict:** {{ if .Passed }}✅ pass{{ else }}❌ fail{{ end }}

| Step | Result | Command |
|------|--------|---------|
{{- range .Steps }}
| {{ .Name }} | {{ .Icon }} | ` + "`{{ .Command }}`" + ` |
{{- end }}

**Mutation fuzzer:** {{ .Mutation }}

<details>
<summary>Raw report JSON</summary>

` + "```json\n{{ .RawJSON }}\n```" + `

</details>
`

// CoverageMarkdown renders the coverage matrix and gap list as a standalone
// Markdown document for the non-gating report command.
func CoverageMarkdown(jurisdiction string, matrix policy.CoverageMatrix, gaps []policy.Gap) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Policy Coverage: %s\n\n", jurisdiction)
	b.WriteString("| Task | Declared checks |\n|------|-----------------|\n")
	for _, task := range matrix.Tasks() {
		kinds := matrix[task].Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		cell := strings.Join(names, ", ")
		if cell == "" {
			cell = "(none)"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", task, cell)
	}

	b.WriteString("\n## Gaps\n\n")
	if len(gaps) == 0 {
		b.WriteString("No gaps detected.\n")
		return b.String()
	}
	b.WriteString("| Task | Gap |\n|------|-----|\n")
	for _, gap := range gaps {
		fmt.Fprintf(&b, "| %s | %s |\n", gap.Task, gap.Gap)
	}
	return b.String()
}
