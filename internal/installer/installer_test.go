package installer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestInstallUninstallSimpleModelZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "fz-beam.zip")
	writeZip(t, zipPath, map[string]string{
		"fz-beam-main/model.json": `{"id": "beam", "input": [], "output": []}`,
	})

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	result, err := Install(KindModel, zipPath, false)
	require.NoError(t, err)
	require.Equal(t, "beam", result.Name)
	require.FileExists(t, filepath.Join(dir, ".fz", "models", "beam.json"))

	ok, err := Uninstall(KindModel, "beam", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoFileExists(t, filepath.Join(dir, ".fz", "models", "beam.json"))
}

func TestInstallWithAccompanyingFzSubdirs(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "fz-beam.zip")
	writeZip(t, zipPath, map[string]string{
		"fz-beam-main/.fz/models/beam.json":      `{"id": "beam"}`,
		"fz-beam-main/.fz/calculators/run.sh":     "#!/bin/sh\necho hi\n",
		"fz-beam-main/.fz/calculators/README.md":  "docs",
	})

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	result, err := Install(KindModel, zipPath, false)
	require.NoError(t, err)
	require.Equal(t, "beam", result.Name)
	require.FileExists(t, filepath.Join(dir, ".fz", "calculators", "run.sh"))
	require.NotEmpty(t, result.InstalledFiles)

	info, err := os.Stat(filepath.Join(dir, ".fz", "calculators", "run.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestUninstallMissingReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	ok, err := Uninstall(KindModel, "nope", false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNormalizeGitHubURLShortName(t *testing.T) {
	require.Equal(t, "https://github.com/Funz/fz-beam/archive/refs/heads/main.zip", normalizeGitHubURL("beam"))
	require.Equal(t, "https://github.com/Funz/fz-beam/archive/refs/heads/main.zip", normalizeGitHubURL("fz-beam"))
}

func TestNormalizeGitHubURLFullURL(t *testing.T) {
	require.Equal(t, "https://github.com/Funz/fz-beam/archive/refs/heads/main.zip",
		normalizeGitHubURL("https://github.com/Funz/fz-beam"))
}
