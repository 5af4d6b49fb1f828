package fzcase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnumerateSingleCase(t *testing.T) {
	cases := Enumerate([]string{"x"}, map[string]any{"x": 1})
	require.Len(t, cases, 1)
	require.Equal(t, "single case", cases[0].Name)
	require.Equal(t, any(1), cases[0].Combo["x"])
}

func TestEnumerateCartesianProduct(t *testing.T) {
	assignment := map[string]any{
		"x": []any{1, 2},
		"y": []any{"a", "b", "c"},
	}
	cases := Enumerate([]string{"x", "y"}, assignment)
	require.Len(t, cases, 6)

	for i, c := range cases {
		require.Equal(t, i, c.Index)
		require.NotEqual(t, "single case", c.Name)
	}

	require.Equal(t, "x=1,y=a", cases[0].Name)
	require.Equal(t, "x=1,y=b", cases[1].Name)
	require.Equal(t, "x=1,y=c", cases[2].Name)
	require.Equal(t, "x=2,y=a", cases[3].Name)
}

func TestEnumerateScalarRepeatedAcrossCases(t *testing.T) {
	assignment := map[string]any{
		"x": []any{1, 2},
		"k": "const",
	}
	cases := Enumerate([]string{"x", "k"}, assignment)
	require.Len(t, cases, 2)
	for _, c := range cases {
		require.Equal(t, "const", c.Combo["k"])
	}
	require.Equal(t, "x=1,k=const", cases[0].Name)
	require.Equal(t, "x=2,k=const", cases[1].Name)
}

func TestFromCombosPreservesBatchOrderWithoutProduct(t *testing.T) {
	combos := []map[string]any{
		{"x": 1.0, "y": 10.0},
		{"x": 2.0, "y": 20.0},
		{"x": 3.0, "y": 30.0},
	}
	cases := FromCombos(combos)
	require.Len(t, cases, 3)
	for i, c := range cases {
		require.Equal(t, i, c.Index)
		require.Equal(t, combos[i], c.Combo)
	}
}

func TestFromCombosSingleComboNamedSingleCase(t *testing.T) {
	cases := FromCombos([]map[string]any{{"x": 1.0}})
	require.Len(t, cases, 1)
	require.Equal(t, "single case", cases[0].Name)
}

func TestComboAsStrings(t *testing.T) {
	out := ComboAsStrings(map[string]any{"x": 1, "y": "a"})
	require.Equal(t, "1", out["x"])
	require.Equal(t, "a", out["y"])
}
