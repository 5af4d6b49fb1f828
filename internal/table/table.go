// Package table assembles per-case records into the columnar result of
// spec.md §4.8: one column per variable name, one per model.output key,
// plus path/calculator/status/error/command, rows ordered by case_index.
package table

import (
	"sort"
	"strings"

	"github.com/Funz/fz-sub001/internal/template"
)

// Row is one case's record.
type Row struct {
	CaseIndex  int
	Vars       map[string]any
	Outputs    map[string]any
	Path       string
	Calculator string
	Status     string
	Error      string
	Command    string
}

// Table is the columnar result: one slice per column name, every slice
// the same length, rows ordered by CaseIndex.
type Table struct {
	Columns []string
	Values  map[string][]any
}

// Assemble builds a Table from rows, sorting by CaseIndex first. Column
// order is: variable names (sorted), output keys (in model declaration
// order as already reflected in outputOrder), then the five fixed
// columns.
func Assemble(rows []Row, outputOrder []string) Table {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CaseIndex < sorted[j].CaseIndex })

	varNames := map[string]struct{}{}
	for _, r := range sorted {
		for k := range r.Vars {
			varNames[k] = struct{}{}
		}
	}
	sortedVars := make([]string, 0, len(varNames))
	for k := range varNames {
		sortedVars = append(sortedVars, k)
	}
	sort.Strings(sortedVars)

	columns := append([]string{}, sortedVars...)
	columns = append(columns, outputOrder...)
	columns = append(columns, "path", "calculator", "status", "error", "command")

	values := make(map[string][]any, len(columns))
	for _, col := range columns {
		values[col] = make([]any, len(sorted))
	}

	for i, r := range sorted {
		for _, v := range sortedVars {
			values[v][i] = r.Vars[v]
		}
		for _, o := range outputOrder {
			values[o][i] = r.Outputs[o]
		}
		values["path"][i] = r.Path
		values["calculator"][i] = r.Calculator
		values["status"][i] = r.Status
		values["error"][i] = r.Error
		values["command"][i] = r.Command
	}

	return Table{Columns: columns, Values: values}
}

// PromoteDirNameColumns implements spec.md §4.8's single-case fzo
// promotion: if dirNames (leaf directory names from a glob) all parse as
// "k1=v1,k2=v2,..." manifests, their keys become first-class columns
// with values cast by the same rule as output extraction; otherwise the
// table is returned unchanged.
func PromoteDirNameColumns(t Table, dirNames []string) Table {
	if len(dirNames) == 0 || len(dirNames) != len(t.Values["path"]) {
		return t
	}

	parsed := make([]map[string]any, len(dirNames))
	for i, name := range dirNames {
		m, ok := parseCaseDirName(name)
		if !ok {
			return t // not every directory matches the shape; no promotion
		}
		parsed[i] = m
	}

	keys := map[string]struct{}{}
	for _, m := range parsed {
		for k := range m {
			keys[k] = struct{}{}
		}
	}
	sortedKeys := make([]string, 0, len(keys))
	for k := range keys {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	out := Table{
		Columns: append(append([]string{}, sortedKeys...), t.Columns...),
		Values:  make(map[string][]any, len(t.Values)+len(sortedKeys)),
	}
	for k := range t.Values {
		out.Values[k] = t.Values[k]
	}
	for _, k := range sortedKeys {
		col := make([]any, len(parsed))
		for i, m := range parsed {
			col[i] = m[k]
		}
		out.Values[k] = col
	}

	return out
}

// parseCaseDirName parses "k1=v1,k2=v2,..." into a cast value map,
// returning ok=false for anything else (including the literal "single
// case" sentinel, which carries no key=value pairs to promote).
func parseCaseDirName(name string) (map[string]any, bool) {
	if name == "" || !strings.Contains(name, "=") {
		return nil, false
	}
	pairs := strings.Split(name, ",")
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		idx := strings.IndexByte(p, '=')
		if idx < 0 {
			return nil, false
		}
		key := p[:idx]
		val := p[idx+1:]
		out[key] = template.CastValue(val)
	}
	return out, true
}
