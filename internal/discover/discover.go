// Package discover implements name discovery and fuzzy suggestion for
// `fz list`: finding installed models/calculators matching a glob, and
// when nothing matches, suggesting close names via
// github.com/lithammer/fuzzysearch -- grounded on
// runtime/planner/planner.go's fuzzy decorator-name resolution.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Entry is one discovered named resource (a model or algorithm/calculator
// alias file).
type Entry struct {
	Name string
	Path string
}

// ListDir lists every *.json/*.yaml/*.yml file under dir as an Entry,
// named by its file stem, sorted by name. A missing dir yields an empty
// list, not an error.
func ListDir(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		out = append(out, Entry{Name: name, Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Match filters entries by glob pattern (filepath.Match semantics against
// the name, not the path). An empty pattern matches everything.
func Match(entries []Entry, pattern string) []Entry {
	if pattern == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if ok, _ := filepath.Match(pattern, e.Name); ok {
			out = append(out, e)
		}
	}
	return out
}

// Suggest returns the names in entries most similar to query, closest
// first, capped at limit. Used when an exact/glob lookup comes back
// empty, so a typo like "slrum" still surfaces "slurm".
func Suggest(entries []Entry, query string, limit int) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	// Rank by case-insensitive edit distance: a subsequence match alone
	// would miss transpositions such as "slrum".
	q := strings.ToLower(query)
	sort.SliceStable(names, func(i, j int) bool {
		return fuzzy.LevenshteinDistance(q, strings.ToLower(names[i])) < fuzzy.LevenshteinDistance(q, strings.ToLower(names[j]))
	})

	out := make([]string, 0, limit)
	for _, name := range names {
		out = append(out, name)
		if len(out) >= limit {
			break
		}
	}
	return out
}
