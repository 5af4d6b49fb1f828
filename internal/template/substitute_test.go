package template

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/model"
)

func TestDiscover(t *testing.T) {
	m := model.Defaults()
	names := Discover(m, "x=${x}, y=$y, z=${z~3}")
	require.Len(t, names, 3)
	for _, n := range []string{"x", "y", "z"} {
		_, ok := names[n]
		require.Truef(t, ok, "expected %q discovered", n)
	}
}

func TestSubstituteDelimitedBound(t *testing.T) {
	m := model.Defaults()
	out, warnings := Substitute(m, "x=${x}", map[string]string{"x": "1"})
	require.Equal(t, "x=1", out)
	require.Empty(t, warnings)
}

func TestSubstituteDefaultFallback(t *testing.T) {
	m := model.Defaults()
	out, warnings := Substitute(m, "p=${port~8080}", map[string]string{})
	require.Equal(t, "p=8080", out)
	require.Len(t, warnings, 1)
}

func TestSubstituteDelimitedUnboundNoDefault(t *testing.T) {
	m := model.Defaults()
	out, warnings := Substitute(m, "x=${x}", map[string]string{})
	require.Equal(t, "x=${x}", out)
	require.Empty(t, warnings)
}

func TestSubstituteBareForm(t *testing.T) {
	m := model.Defaults()
	out, _ := Substitute(m, "x=$x and $unbound", map[string]string{"x": "7"})
	require.Equal(t, "x=7 and $unbound", out)
}

func TestCastValue(t *testing.T) {
	require.Equal(t, int64(42), CastValue("42"))
	require.Equal(t, 3.14, CastValue("3.14"))
	require.Equal(t, "hello", CastValue("hello"))
	require.Equal(t, true, CastValue("true"))
	require.Equal(t, float64(1), CastValue("[1]"))
}
