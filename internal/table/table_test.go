package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleOrdersByCaseIndex(t *testing.T) {
	rows := []Row{
		{CaseIndex: 1, Vars: map[string]any{"x": 2}, Status: "done"},
		{CaseIndex: 0, Vars: map[string]any{"x": 1}, Status: "done"},
	}
	tbl := Assemble(rows, nil)
	require.Equal(t, []any{1, 2}, tbl.Values["x"])
	require.Equal(t, []any{"done", "done"}, tbl.Values["status"])
}

func TestAssembleIncludesOutputColumns(t *testing.T) {
	rows := []Row{
		{CaseIndex: 0, Vars: map[string]any{}, Outputs: map[string]any{"y": 3.5}},
	}
	tbl := Assemble(rows, []string{"y"})
	require.Contains(t, tbl.Columns, "y")
	require.Equal(t, []any{3.5}, tbl.Values["y"])
}

func TestPromoteDirNameColumns(t *testing.T) {
	rows := []Row{
		{CaseIndex: 0, Path: "results/x=1,y=a"},
		{CaseIndex: 1, Path: "results/x=2,y=b"},
	}
	tbl := Assemble(rows, nil)
	promoted := PromoteDirNameColumns(tbl, []string{"x=1,y=a", "x=2,y=b"})
	require.Contains(t, promoted.Columns, "x")
	require.Contains(t, promoted.Columns, "y")
	require.Equal(t, []any{int64(1), int64(2)}, promoted.Values["x"])
	require.Equal(t, []any{"a", "b"}, promoted.Values["y"])
}

func TestPromoteDirNameColumnsSkipsMixedShapes(t *testing.T) {
	rows := []Row{{CaseIndex: 0, Path: "results/single case"}}
	tbl := Assemble(rows, nil)
	promoted := PromoteDirNameColumns(tbl, []string{"single case"})
	require.Equal(t, tbl.Columns, promoted.Columns)
}
