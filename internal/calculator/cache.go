package calculator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cacheindex "github.com/Funz/fz-sub001/internal/cache"
	"github.com/Funz/fz-sub001/internal/hash"
)

// CacheAdapter doesn't execute anything; it satisfies the Adapter
// interface so it can sit in the same Pool as live calculators, but its
// real work happens through Lookup, which the Case Runner's cache-first
// check (spec.md §6.1) calls directly, without a lease, before any
// calculator is leased for actual execution.
type CacheAdapter struct {
	spec Spec
}

// NewCacheAdapter constructs a cache lookup adapter rooted at spec's path.
func NewCacheAdapter(spec Spec) *CacheAdapter {
	return &CacheAdapter{spec: spec}
}

func (a *CacheAdapter) ID() string { return "cache://" + a.spec.CachePath }

func (a *CacheAdapter) Close() error { return nil }

// Execute always reports failed: a cache adapter never runs a case, it
// can only serve a Lookup hit. A scheduler that somehow leases a
// CacheAdapter for live execution (a calculator-list misconfiguration)
// gets a clear failure rather than a silent no-op success.
func (a *CacheAdapter) Execute(ctx context.Context, workingDir string, inputFilenames []string, command string, timeout time.Duration) (AttemptResult, error) {
	return AttemptResult{Status: StatusFailed, Err: fmt.Errorf("calculator: cache adapter cannot execute cases directly")}, nil
}

// Lookup resolves the cache spec's `cache://<glob or "_">` path
// (spec.md §3) with filepath.Glob into a set of candidate root
// directories, then in each looks for a subdirectory whose .fz_hash
// manifest byte-equals want (spec.md §4.5), returning the first match in
// glob order. filepath.Glob only returns paths that exist, so a literal
// non-glob path and a pattern matching nothing are both a clean miss
// here rather than an error.
func (a *CacheAdapter) Lookup(want []hash.Entry) (string, bool, error) {
	roots, err := filepath.Glob(a.spec.CachePath)
	if err != nil {
		return "", false, fmt.Errorf("calculator: invalid cache glob %q: %w", a.spec.CachePath, err)
	}

	for _, root := range roots {
		candidate, found, err := a.lookupRoot(root, want)
		if err != nil {
			return "", false, err
		}
		if found {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// lookupRoot scans one resolved cache root, using internal/cache's
// side-file index to skip re-hashing manifests that haven't changed
// since the last Lookup against this same root.
func (a *CacheAdapter) lookupRoot(root string, want []hash.Entry) (string, bool, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", false, nil
	}

	idx, err := cacheindex.Load(root)
	if err != nil {
		return "", false, err
	}
	if _, err := cacheindex.Refresh(root, idx); err != nil {
		return "", false, err
	}
	// Best-effort: a failure to persist the accelerator index never
	// fails the lookup itself, since the authoritative .fz_hash
	// manifests were already read directly by Refresh.
	_ = cacheindex.Save(root, idx)

	name, ok := cacheindex.Find(idx, want)
	if !ok {
		return "", false, nil
	}
	return filepath.Join(root, name), true, nil
}

// CopyResults copies every regular file under src (the matched cached
// case directory) into dst, used to harvest outputs from a cache hit the
// same way a live calculator's outputs would be harvested.
func CopyResults(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
