package policy

import (
	"reflect"
	"testing"
)

// packWithTasks builds an in-memory pack from task -> kind names.
func packWithTasks(tasks map[string][]string) *PolicyPack {
	taskDocs := make(map[string]any, len(tasks))
	for task, kinds := range tasks {
		entries := make([]any, 0, len(kinds))
		for _, kind := range kinds {
			entries = append(entries, map[string]any{"kind": kind})
		}
		taskDocs[task] = entries
	}
	return &PolicyPack{
		Jurisdiction: "test",
		Rules:        map[string]any{},
		Mappings:     map[string]any{"tasks": taskDocs},
	}
}

func TestBuildMatrix(t *testing.T) {
	pack := packWithTasks(map[string][]string{
		"checkout":  {"mask_pii", "require_provenance", "mask_pii"},
		"search":    {},
		"_default_": {"content_policy"},
	})

	matrix, err := BuildMatrix(pack)
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}

	if len(matrix) != 2 {
		t.Fatalf("matrix has %d tasks, want 2 (default excluded): %v", len(matrix), matrix.Tasks())
	}
	if _, ok := matrix[ReservedDefaultTask]; ok {
		t.Error("reserved default task must be excluded from the matrix")
	}

	// Duplicate kinds collapse into the set.
	checkout := matrix["checkout"]
	if len(checkout) != 2 {
		t.Errorf("checkout set has %d kinds, want 2", len(checkout))
	}
	if !checkout.Has(KindMaskPII) || !checkout.Has(KindRequireProvenance) {
		t.Errorf("checkout set = %v", checkout.Kinds())
	}

	// A task with zero checks is present with an empty set, not absent:
	// "no checks declared" and "task not covered" are different facts.
	search, ok := matrix["search"]
	if !ok {
		t.Fatal("task with zero checks must still appear in the matrix")
	}
	if len(search) != 0 {
		t.Errorf("search set = %v, want empty", search.Kinds())
	}
}

func TestBuildMatrixUnknownKind(t *testing.T) {
	pack := packWithTasks(map[string][]string{
		"checkout": {"telepathy_check"},
	})

	if _, err := BuildMatrix(pack); err == nil {
		t.Fatal("unknown kind must be a configuration error")
	}
}

func TestBuildMatrixOrderIndependence(t *testing.T) {
	forward := packWithTasks(map[string][]string{
		"checkout": {"mask_pii", "require_provenance", "budget_limit"},
	})
	reversed := packWithTasks(map[string][]string{
		"checkout": {"budget_limit", "require_provenance", "mask_pii"},
	})

	m1, err := BuildMatrix(forward)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := BuildMatrix(reversed)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("matrix depends on declaration order:\n%v\n%v", m1, m2)
	}
}

func TestKindSetKindsSorted(t *testing.T) {
	set := KindSet{
		KindRequireProvenance: {},
		KindAgeGate:           {},
		KindMaskPII:           {},
	}
	got := set.Kinds()
	want := []CheckKind{KindAgeGate, KindMaskPII, KindRequireProvenance}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Kinds() = %v, want %v", got, want)
	}
}
