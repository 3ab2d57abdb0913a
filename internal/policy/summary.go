package policy

import (
	"fmt"
	"strings"
)

// CoverageSummary renders the matrix and gap list as plain text for stage
// output capture.
func CoverageSummary(matrix CoverageMatrix, gaps []Gap) string {
	var b strings.Builder

	fmt.Fprintf(&b, "coverage: %d tasks\n", len(matrix))
	for _, task := range matrix.Tasks() {
		kinds := matrix[task].Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		if len(names) == 0 {
			fmt.Fprintf(&b, "  %s: (no checks declared)\n", task)
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", task, strings.Join(names, ", "))
	}

	if len(gaps) == 0 {
		b.WriteString("gaps: none\n")
		return b.String()
	}
	fmt.Fprintf(&b, "gaps: %d\n", len(gaps))
	for _, gap := range gaps {
		fmt.Fprintf(&b, "  %s: %s\n", gap.Task, gap.Gap)
	}
	return b.String()
}
