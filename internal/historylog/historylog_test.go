package historylog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCaseHistoryWrite(t *testing.T) {
	dir := t.TempDir()
	h := NewCaseHistory("x=1,y=a")
	h.Append("materialized", time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	h.Append("submitted to sh://", time.Date(2026, 1, 1, 10, 0, 1, 0, time.UTC))
	require.NoError(t, h.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, "history.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "# x=1,y=a")
	require.Contains(t, string(data), "materialized")
}

func TestWriteInfoFileOrdersFields(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)
	err := WriteInfoFile(dir, InfoFields{
		State:      "done",
		Calculator: "sh://",
		Start:      start,
		End:        end,
		Inputs:     map[string]any{"temp": 100},
		Outputs:    map[string]any{"result": 42.0},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "info.txt"))
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "state=done\n")
	require.Contains(t, content, "duration=2.00\n")
	require.Contains(t, content, "input.temp=100\n")
	require.Contains(t, content, "output.result=42\n")
}

func TestAppendAndReadRunLedger(t *testing.T) {
	root := t.TempDir()
	r1 := RunRecord{Time: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), SubCmd: "run", Model: "beam", Summary: "3 cases, 3 done"}
	r2 := RunRecord{Time: time.Date(2026, 1, 1, 9, 5, 0, 0, time.UTC), SubCmd: "design", Model: "beam", Summary: "converged after 4 iterations"}

	require.NoError(t, Append(root, r1))
	require.NoError(t, Append(root, r2))

	records, err := Read(root)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "run", records[0].SubCmd)
	require.Equal(t, "design", records[1].SubCmd)
}

func TestReadMissingLedgerReturnsEmpty(t *testing.T) {
	records, err := Read(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, records)
}
