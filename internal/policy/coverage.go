package policy

import "sort"

// KindSet is an unordered set of check kinds declared for one task.
type KindSet map[CheckKind]struct{}

// Has reports whether the set contains the kind.
func (s KindSet) Has(kind CheckKind) bool {
	_, ok := s[kind]
	return ok
}

// Kinds returns the set contents in canonical (sorted) order.
func (s KindSet) Kinds() []CheckKind {
	kinds := make([]CheckKind, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// CoverageMatrix maps each declared task type to the set of check kinds it
// declares. The reserved default entry is excluded. A task with zero declared
// checks is present with an empty set: callers must be able to distinguish
// "no checks declared" from "task not covered at all".
type CoverageMatrix map[string]KindSet

// Tasks returns the matrix's task names in sorted order.
func (m CoverageMatrix) Tasks() []string {
	tasks := make([]string, 0, len(m))
	for task := range m {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks
}

// BuildMatrix derives the coverage matrix from a pack's mappings document.
// The result is invariant under reordering of check declarations within a
// task: duplicate kinds collapse into the set.
func BuildMatrix(pack *PolicyPack) (CoverageMatrix, error) {
	checks, err := pack.TaskChecks()
	if err != nil {
		return nil, err
	}

	matrix := make(CoverageMatrix, len(checks))
	for task, decls := range checks {
		if task == ReservedDefaultTask {
			continue
		}
		set := make(KindSet, len(decls))
		for _, decl := range decls {
			set[decl.Kind] = struct{}{}
		}
		matrix[task] = set
	}
	return matrix, nil
}
