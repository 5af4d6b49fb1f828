// Package config reads fz's environment-variable configuration
// (spec.md §6.4) into a single RunConfig value at startup -- no
// package-level globals, so tests can construct independent configs.
package config

import (
	"os"
	"strconv"

	"github.com/Funz/fz-sub001/internal/fzlog"
)

// RunConfig holds every environment-tunable knob spec.md §6.4 names.
type RunConfig struct {
	LogLevel              fzlog.Level
	RunTimeoutSeconds     int
	MaxRetries            int
	MaxWorkers            int // 0 means "auto"
	ShellPath             string
	SSHAutoAcceptHostkeys bool
	SSHKeepaliveSeconds   int
}

// Defaults matches spec.md §6.4's stated defaults.
func Defaults() RunConfig {
	return RunConfig{
		LogLevel:              fzlog.LevelError,
		RunTimeoutSeconds:     600,
		MaxRetries:            3,
		MaxWorkers:            0,
		SSHAutoAcceptHostkeys: false,
		SSHKeepaliveSeconds:   30,
	}
}

// FromEnv reads the recognized variables once, falling back to Defaults
// for anything unset or unparsable.
func FromEnv() RunConfig {
	c := Defaults()

	if v := os.Getenv("FZ_LOG_LEVEL"); v != "" {
		c.LogLevel = fzlog.ParseLevel(v)
	}
	if v := envInt("FZ_RUN_TIMEOUT"); v != nil {
		c.RunTimeoutSeconds = *v
	}
	if v := envInt("FZ_MAX_RETRIES"); v != nil {
		c.MaxRetries = *v
	}
	if v := envInt("FZ_MAX_WORKERS"); v != nil {
		c.MaxWorkers = *v
	}
	if v := os.Getenv("FZ_SHELL_PATH"); v != "" {
		c.ShellPath = v
	}
	if v := os.Getenv("FZ_SSH_AUTO_ACCEPT_HOSTKEYS"); v != "" {
		c.SSHAutoAcceptHostkeys = v == "1" || v == "true"
	}
	if v := envInt("FZ_SSH_KEEPALIVE"); v != nil {
		c.SSHKeepaliveSeconds = *v
	}

	return c
}

func envInt(name string) *int {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
