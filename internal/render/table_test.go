package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableRendersHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "TASK", "CHECKS")
	table.AddRow("checkout", "mask_pii, require_provenance")
	table.AddRow("search", "")
	if err := table.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "TASK") {
		t.Errorf("header missing: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "----") {
		t.Errorf("separator missing: %q", lines[1])
	}
	if !strings.Contains(lines[2], "checkout") {
		t.Errorf("row missing: %q", lines[2])
	}
}

func TestTableTruncation(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "STEP", "COMMAND")
	table.TruncateLast(10)
	table.AddRow("lint", "policy-lint --policy-root policies --jurisdiction eu-west")
	if err := table.Render(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "policy-...") {
		t.Errorf("long value not truncated:\n%s", buf.String())
	}
}

func TestTableTruncatesOnlyLastColumn(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "STEP", "EXIT", "COMMAND")
	table.TruncateLast(10)
	table.AddRow("mutation-fuzzer-stage-with-a-long-name", "0", "policy-mutate --count 25")
	if err := table.Render(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "mutation-fuzzer-stage-with-a-long-name") {
		t.Errorf("leading column was truncated:\n%s", out)
	}
	if !strings.Contains(out, "policy-...") {
		t.Errorf("command column not truncated:\n%s", out)
	}
}

func TestTableMissingAndExtraValues(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "A", "B")
	table.AddRow("only")
	table.AddRow("x", "y", "ignored")
	if err := table.Render(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(buf.String(), "ignored") {
		t.Errorf("extra value leaked:\n%s", buf.String())
	}
}
