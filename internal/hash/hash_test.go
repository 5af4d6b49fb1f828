package hash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestStableAcrossRuns(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir1, "in.txt"), []byte("x=1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "in.txt"), []byte("x=1"), 0o644))

	e1, err := Digest(dir1, SHA256)
	require.NoError(t, err)
	e2, err := Digest(dir2, SHA256)
	require.NoError(t, err)

	require.True(t, Equal(e1, e2))
}

func TestDigestDiffersOnContent(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir1, "in.txt"), []byte("x=1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "in.txt"), []byte("x=2"), 0o644))

	e1, _ := Digest(dir1, SHA256)
	e2, _ := Digest(dir2, SHA256)
	require.False(t, Equal(e1, e2))
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644))

	entries, err := Digest(dir, SHA256)
	require.NoError(t, err)
	require.NoError(t, WriteManifest(dir, entries))

	read, err := ReadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	require.True(t, Equal(entries, read))
	require.Equal(t, []string{"a.txt", "sub/b.txt"}, Filenames(read))
}
