package calculator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalAdapterExecuteSuccess(t *testing.T) {
	a := NewLocalAdapter(Spec{Kind: KindLocal})
	result, err := a.Execute(context.Background(), t.TempDir(), nil, "echo hello", 0)
	require.NoError(t, err)
	require.Equal(t, StatusDone, result.Status)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, string(result.Stdout), "hello")
}

func TestLocalAdapterExecuteNonZeroExit(t *testing.T) {
	a := NewLocalAdapter(Spec{Kind: KindLocal})
	result, err := a.Execute(context.Background(), t.TempDir(), nil, "exit 7", 0)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, 7, result.ExitCode)
}

func TestLocalAdapterExecuteTimeout(t *testing.T) {
	a := NewLocalAdapter(Spec{Kind: KindLocal})
	result, err := a.Execute(context.Background(), t.TempDir(), nil, "sleep 5", 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, StatusTimeout, result.Status)
}
