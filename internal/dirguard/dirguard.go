// Package dirguard implements the Unique-Directory Guard of spec.md §4.3:
// creating a results/output directory never silently clobbers a previous
// one. Grounded on the "create parent dirs, then write" discipline of
// core/decorator/local_session.go's Put.
package dirguard

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Ensure creates a fresh empty directory at path. If path already exists,
// the existing directory is renamed to "path.<unix-timestamp>" first, and
// that renamed path is returned as the second value (empty string if no
// rename happened), per spec.md §4.3.
func Ensure(path string) (finalPath string, renamedFrom string, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		renamed := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		if err := os.Rename(path, renamed); err != nil {
			return "", "", fmt.Errorf("renaming existing directory %s: %w", path, err)
		}
		renamedFrom = renamed
	} else if !os.IsNotExist(statErr) {
		return "", "", statErr
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", "", fmt.Errorf("creating %s: %w", path, err)
	}

	return path, renamedFrom, nil
}

// RewriteSelfCache rewrites every "cache://_" entry in calculators to
// point at renamedFrom, so a fresh run may cache-match against its own
// previous output, per spec.md §4.3. Entries with any other scheme/path
// are left untouched.
func RewriteSelfCache(calculators []string, renamedFrom string) []string {
	if renamedFrom == "" {
		return calculators
	}
	out := make([]string, len(calculators))
	for i, c := range calculators {
		if c == "cache://_" {
			out[i] = "cache://" + filepath.Clean(renamedFrom)
		} else {
			out[i] = c
		}
	}
	return out
}
