package calculator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/hash"
)

func writeCachedCase(t *testing.T, dir string, content string) []hash.Entry {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.txt"), []byte(content), 0o644))
	entries, err := hash.Digest(dir, hash.SHA256)
	require.NoError(t, err)
	require.NoError(t, hash.WriteManifest(dir, entries))
	return entries
}

func TestCacheAdapterLookupExpandsGlob(t *testing.T) {
	root := t.TempDir()
	writeCachedCase(t, filepath.Join(root, "results_a", "case0"), "x=1")
	want := writeCachedCase(t, filepath.Join(root, "results_b", "case0"), "x=2")

	adapter := NewCacheAdapter(Spec{Kind: KindCache, CachePath: filepath.Join(root, "results_*")})

	got, found, err := adapter.Lookup(want)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, filepath.Join(root, "results_b", "case0"), got)
}

func TestCacheAdapterLookupMissReturnsNoError(t *testing.T) {
	root := t.TempDir()
	writeCachedCase(t, filepath.Join(root, "results_a", "case0"), "x=1")

	adapter := NewCacheAdapter(Spec{Kind: KindCache, CachePath: filepath.Join(root, "results_*")})

	_, found, err := adapter.Lookup([]hash.Entry{{Digest: "nonexistent", Path: "in.txt"}})
	require.NoError(t, err)
	require.False(t, found)
}

func TestCacheAdapterLookupNoMatchingGlobIsMiss(t *testing.T) {
	root := t.TempDir()
	adapter := NewCacheAdapter(Spec{Kind: KindCache, CachePath: filepath.Join(root, "nothing_here_*")})

	_, found, err := adapter.Lookup([]hash.Entry{{Digest: "abc", Path: "in.txt"}})
	require.NoError(t, err)
	require.False(t, found)
}
