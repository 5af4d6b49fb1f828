package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/hash"
)

func TestRefreshAndFind(t *testing.T) {
	root := t.TempDir()
	caseDir := filepath.Join(root, "x=1")
	require.NoError(t, os.MkdirAll(caseDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, "in.txt"), []byte("x=1"), 0o644))

	entries, err := hash.Digest(caseDir, hash.SHA256)
	require.NoError(t, err)
	require.NoError(t, hash.WriteManifest(caseDir, entries))

	idx, err := Load(root)
	require.NoError(t, err)
	refreshed, err := Refresh(root, idx)
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	name, ok := Find(idx, entries)
	require.True(t, ok)
	require.Equal(t, "x=1", name)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	idx := &Index{Entries: map[string]CaseEntry{
		"a": {Manifest: []hash.Entry{{Digest: "abc", Path: "in.txt"}}, ModUnix: 123},
	}}
	require.NoError(t, Save(root, idx))

	loaded, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, idx.Entries["a"].Manifest, loaded.Entries["a"].Manifest)
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	idx, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, idx.Entries)
}
