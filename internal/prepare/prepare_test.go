package prepare

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/model"
)

func TestMaterializeSubstitutesAndHashes(t *testing.T) {
	inputRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputRoot, "in.txt"), []byte("value=$x\n"), 0o644))

	destDir := filepath.Join(t.TempDir(), "case0")
	m := model.Defaults()
	c := fzcase.Case{Index: 0, Combo: map[string]any{"x": 42}, Name: "single case"}

	result, err := Materialize(context.Background(), m, inputRoot, destDir, c, hash.SHA256)
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	data, err := os.ReadFile(filepath.Join(destDir, "in.txt"))
	require.NoError(t, err)
	require.Equal(t, "value=42\n", string(data))

	_, err = os.Stat(filepath.Join(destDir, hash.ManifestFile))
	require.NoError(t, err)
	require.Len(t, result.Manifest, 1)
}

func TestMaterializeSingleFileInputRoot(t *testing.T) {
	inputFile := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(inputFile, []byte("value=$x\n"), 0o644))

	destDir := filepath.Join(t.TempDir(), "case0")
	m := model.Defaults()
	c := fzcase.Case{Index: 0, Combo: map[string]any{"x": 42}, Name: "single case"}

	result, err := Materialize(context.Background(), m, inputFile, destDir, c, hash.SHA256)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(destDir, "in.txt"))
	require.NoError(t, err)
	require.Equal(t, "value=42\n", string(data))
	require.Len(t, result.Manifest, 1)
}

func TestMaterializeUnboundDelimitedVariableWarns(t *testing.T) {
	inputRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputRoot, "in.txt"), []byte("value=${y~5}\n"), 0o644))

	destDir := filepath.Join(t.TempDir(), "case0")
	m := model.Defaults()
	c := fzcase.Case{Index: 0, Combo: map[string]any{}, Name: "single case"}

	result, err := Materialize(context.Background(), m, inputRoot, destDir, c, hash.SHA256)
	require.NoError(t, err)
	require.NotEmpty(t, result.Warnings)

	data, err := os.ReadFile(filepath.Join(destDir, "in.txt"))
	require.NoError(t, err)
	require.Equal(t, "value=5\n", string(data))
}
