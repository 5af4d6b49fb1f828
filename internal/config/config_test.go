package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/fzlog"
)

func TestDefaults(t *testing.T) {
	c := Defaults()
	require.Equal(t, fzlog.LevelError, c.LogLevel)
	require.Equal(t, 600, c.RunTimeoutSeconds)
	require.Equal(t, 3, c.MaxRetries)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FZ_LOG_LEVEL", "DEBUG")
	t.Setenv("FZ_MAX_RETRIES", "9")
	t.Setenv("FZ_MAX_WORKERS", "4")
	t.Setenv("FZ_SSH_AUTO_ACCEPT_HOSTKEYS", "true")

	c := FromEnv()
	require.Equal(t, fzlog.LevelDebug, c.LogLevel)
	require.Equal(t, 9, c.MaxRetries)
	require.Equal(t, 4, c.MaxWorkers)
	require.True(t, c.SSHAutoAcceptHostkeys)
}

func TestFromEnvIgnoresUnparsable(t *testing.T) {
	t.Setenv("FZ_MAX_RETRIES", "not-a-number")
	c := FromEnv()
	require.Equal(t, 3, c.MaxRetries)
}
