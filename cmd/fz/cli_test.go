package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir switches the process working directory for the duration of a test,
// since every subcommand resolves .fz/<kind>/ relative to "." the way the
// teacher's own cli/main.go resolves its project config relative to cwd.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeFixture(t *testing.T, dir string) (inputPath, modelArg string) {
	t.Helper()
	inputPath = filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("x = ${x}\ny = ${y~2}\n"), 0o644))

	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(`{
		"id": "demo",
		"output": {"x_out": "grep -o 'x = [0-9]*' input.txt | cut -d' ' -f3"}
	}`), 0o644))
	return inputPath, modelPath
}

func TestInputCmdDiscoversVariables(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	inputPath, modelPath := writeFixture(t, dir)

	cmd := newInputCmd()
	out := &captureWriter{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"-i", inputPath, "-m", modelPath, "-f", "json"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "x")
	require.Contains(t, out.String(), "y")
}

func TestCompileCmdMaterializesCases(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	inputPath, modelPath := writeFixture(t, dir)

	cmd := newCompileCmd()
	out := &captureWriter{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{
		"-i", inputPath,
		"-m", modelPath,
		"-v", `{"x": [1, 2], "y": 5}`,
		"-o", "results",
	})
	require.NoError(t, cmd.Execute())

	require.DirExists(t, filepath.Join(dir, "results", "x=1,y=5"))
	require.DirExists(t, filepath.Join(dir, "results", "x=2,y=5"))
	require.FileExists(t, filepath.Join(dir, "results", "x=1,y=5", ".fz_hash"))

	data, err := os.ReadFile(filepath.Join(dir, "results", "x=1,y=5", "input.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "x = 1")
	require.Contains(t, string(data), "y = 5")
}

func TestRunCmdExecutesLocalCalculator(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	inputPath, modelPath := writeFixture(t, dir)

	cmd := newRunCmd()
	out := &captureWriter{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{
		"-i", inputPath,
		"-m", modelPath,
		"-v", `{"x": [1, 2], "y": 5}`,
		"-c", "sh://true",
		"-r", "results",
		"-f", "json",
	})
	require.NoError(t, cmd.Execute())

	require.FileExists(t, filepath.Join(dir, "results", "x=1,y=5", "log.txt"))
	require.FileExists(t, filepath.Join(dir, "results", "x=1,y=5", "out.txt"))

	history, err := os.ReadFile(filepath.Join(dir, ".fz", "history.log"))
	require.NoError(t, err)
	require.Contains(t, string(history), "run")
}

// captureWriter is a minimal io.Writer that also implements String(), so
// subcommand output can be asserted against without shelling out to a real
// terminal or depending on os.Pipe plumbing.
type captureWriter struct {
	data []byte
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *captureWriter) String() string { return string(c.data) }
