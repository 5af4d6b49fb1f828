package template

import (
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/Funz/fz-sub001/internal/model"
)

// Discover returns the set of variable names referenced in text, per
// spec.md §4.1 ("Variable discovery"): the union of bare-form and
// delimited-form occurrences. Defaults are not returned, only names.
func Discover(m model.Model, text string) map[string]struct{} {
	pat := buildPatterns(m)
	names := map[string]struct{}{}

	if pat.hasDelim {
		for _, g := range pat.delimVar.FindAllStringSubmatch(text, -1) {
			names[g[1]] = struct{}{}
		}
	}
	for _, g := range pat.bareVar.FindAllStringSubmatch(text, -1) {
		names[g[1]] = struct{}{}
	}
	return names
}

// DiscoverPath walks a file or directory and returns the union of variable
// names across every UTF-8-decodable file found. Binary files are skipped
// silently, per spec.md §4.1.
func DiscoverPath(m model.Model, root string) (map[string]struct{}, error) {
	names := map[string]struct{}{}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	var walk func(path string) error
	walk = func(path string) error {
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return err
			}
			sorted := make([]string, 0, len(entries))
			for _, e := range entries {
				sorted = append(sorted, e.Name())
			}
			sort.Strings(sorted)
			for _, name := range sorted {
				if err := walk(filepath.Join(path, name)); err != nil {
					return err
				}
			}
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return nil // binary file, skip silently
		}
		for name := range Discover(m, string(data)) {
			names[name] = struct{}{}
		}
		return nil
	}

	if info.IsDir() {
		if err := walk(root); err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(root)
		if err != nil {
			return nil, err
		}
		if utf8.Valid(data) {
			for name := range Discover(m, string(data)) {
				names[name] = struct{}{}
			}
		}
	}

	return names, nil
}
