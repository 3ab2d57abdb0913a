package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table formats aligned terminal output for the report and run commands.
// Rows are buffered in a tabwriter and emitted on Render.
type Table struct {
	w             *tabwriter.Writer
	headers       []string
	lastColWidth  int // 0 = unlimited
	headerWritten bool
}

// NewTable creates a table that writes to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{
		w:       tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// TruncateLast caps the display width of the final column. Command lines are
// the only cell content long enough to wreck alignment, and they always sit
// in the last column.
func (t *Table) TruncateLast(width int) *Table {
	t.lastColWidth = width
	return t
}

// AddRow appends a data row. Extra values beyond the header count are
// ignored; missing values are filled with empty strings.
func (t *Table) AddRow(values ...string) {
	if !t.headerWritten {
		t.headerWritten = true
		t.writeRow(t.headers)
		rules := make([]string, len(t.headers))
		for i, h := range t.headers {
			rules[i] = strings.Repeat("-", len(h))
		}
		t.writeRow(rules)
	}

	cells := make([]string, len(t.headers))
	copy(cells, values[:min(len(values), len(cells))])
	last := len(cells) - 1
	if last >= 0 {
		cells[last] = truncate(cells[last], t.lastColWidth)
	}
	t.writeRow(cells)
}

// Render flushes the buffered rows. Must be called after all AddRow calls.
func (t *Table) Render() error {
	return t.w.Flush()
}

func (t *Table) writeRow(cells []string) {
	//nolint:errcheck // tabwriter buffers; errors surface on Flush
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
