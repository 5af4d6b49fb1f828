package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDirMissingReturnsEmpty(t *testing.T) {
	entries, err := ListDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestListDirFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"slurm.json", "local.yaml", "notes.txt", "ssh.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	entries, err := ListDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"local", "slurm", "ssh"}, names)
}

func TestMatchGlob(t *testing.T) {
	entries := []Entry{{Name: "slurm"}, {Name: "ssh"}, {Name: "local"}}
	got := Match(entries, "s*")
	require.Len(t, got, 2)
}

func TestMatchEmptyPatternMatchesAll(t *testing.T) {
	entries := []Entry{{Name: "slurm"}, {Name: "local"}}
	require.Equal(t, entries, Match(entries, ""))
}

func TestSuggestRanksClosestFirst(t *testing.T) {
	entries := []Entry{{Name: "slurm"}, {Name: "ssh"}, {Name: "local"}}
	got := Suggest(entries, "slrum", 2)
	require.NotEmpty(t, got)
	require.Equal(t, "slurm", got[0])
}
