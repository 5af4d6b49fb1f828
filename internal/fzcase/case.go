// Package fzcase enumerates cases from a variable assignment, per spec.md
// §3 ("Variable assignment", "Case"): the Cartesian product across every
// list-bound name.
package fzcase

import (
	"fmt"
	"sort"
	"strings"
)

// Case is one point of the Cartesian product: (case_index, var_combo,
// case_name).
type Case struct {
	Index int
	Combo map[string]any // scalar-only
	Name  string          // "k1=v1,k2=v2,..." or "single case"
}

// Enumerate expands assignment (name -> scalar or []any) into the ordered
// list of cases. names fixes the iteration order used to build case
// names and combos, so callers control determinism the way the
// assignment was declared (e.g. JSON object key order).
func Enumerate(names []string, assignment map[string]any) []Case {
	lists := make([][]any, len(names))
	for i, n := range names {
		v := assignment[n]
		if arr, ok := v.([]any); ok {
			lists[i] = arr
		} else {
			lists[i] = []any{v}
		}
	}

	total := 1
	for _, l := range lists {
		total *= len(l)
	}
	if total == 0 {
		total = 0
	}

	cases := make([]Case, 0, total)
	indices := make([]int, len(names))

	for idx := 0; idx < total; idx++ {
		combo := make(map[string]any, len(names))
		var parts []string
		for i, n := range names {
			v := lists[i][indices[i]]
			combo[n] = v
			parts = append(parts, fmt.Sprintf("%s=%v", n, v))
		}

		name := "single case"
		if total > 1 {
			name = strings.Join(parts, ",")
		}

		cases = append(cases, Case{Index: idx, Combo: combo, Name: name})

		// odometer increment, rightmost name fastest-varying first so the
		// product visits combinations in the same lexicographic order as
		// nested loops over names in declaration order.
		for i := len(names) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(lists[i]) {
				break
			}
			indices[i] = 0
		}
	}

	return cases
}

// FromCombos builds one Case per already-paired combo, in order, instead
// of crossing independent per-variable lists. This is the shape a design
// algorithm's initial_design/next_design batch comes in (spec.md §4.9):
// each map is one fully-specified point, not a list to Cartesian-product
// against the others, so Enumerate's product semantics don't apply here.
func FromCombos(combos []map[string]any) []Case {
	cases := make([]Case, 0, len(combos))
	for idx, combo := range combos {
		names := SortedNames(combo)
		parts := make([]string, 0, len(names))
		for _, n := range names {
			parts = append(parts, fmt.Sprintf("%s=%v", n, combo[n]))
		}

		name := "single case"
		if len(combos) > 1 {
			name = strings.Join(parts, ",")
		}

		cases = append(cases, Case{Index: idx, Combo: combo, Name: name})
	}
	return cases
}

// ComboAsStrings renders a Combo's values as their str() form, the shape
// Substitute expects.
func ComboAsStrings(combo map[string]any) map[string]string {
	out := make(map[string]string, len(combo))
	for k, v := range combo {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// SortedNames is a small helper for callers that only have an unordered
// assignment map and need a deterministic fallback order.
func SortedNames(assignment map[string]any) []string {
	names := make([]string, 0, len(assignment))
	for n := range assignment {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
