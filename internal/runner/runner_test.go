package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/model"
)

func TestRunSucceedsOnFirstAttempt(t *testing.T) {
	caseDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, "in.txt"), []byte("x"), 0o644))
	manifest, err := hash.Digest(caseDir, hash.SHA256)
	require.NoError(t, err)
	require.NoError(t, hash.WriteManifest(caseDir, manifest))

	pool := calculator.New([]calculator.Adapter{calculator.NewLocalAdapter(calculator.Spec{Kind: calculator.KindLocal})})
	c := fzcase.Case{Index: 0, Combo: map[string]any{}, Name: "single case"}
	m := model.Defaults()

	outcome := Run(context.Background(), m, c, caseDir, manifest, pool, Options{
		MaxRetries: 3,
		Backoff:    BackoffConstant,
		BaseDelay:  time.Millisecond,
		Command:    "echo ok",
	})

	require.Equal(t, calculator.StatusDone, outcome.Status)
	require.Equal(t, 1, outcome.Attempts)
	require.False(t, outcome.CacheHit)

	require.FileExists(t, filepath.Join(caseDir, "out.txt"))
	require.FileExists(t, filepath.Join(caseDir, "err.txt"))
	logContents, err := os.ReadFile(filepath.Join(caseDir, "log.txt"))
	require.NoError(t, err)
	require.Contains(t, string(logContents), "command: echo ok\n")
	require.Contains(t, string(logContents), "exit code: 0\n")
}

func TestRunRetriesUpToMaxRetriesOnFailure(t *testing.T) {
	caseDir := t.TempDir()
	manifest, err := hash.Digest(caseDir, hash.SHA256)
	require.NoError(t, err)

	pool := calculator.New([]calculator.Adapter{
		calculator.NewLocalAdapter(calculator.Spec{Kind: calculator.KindLocal}),
	})
	c := fzcase.Case{Index: 0, Combo: map[string]any{}, Name: "single case"}
	m := model.Defaults()

	outcome := Run(context.Background(), m, c, caseDir, manifest, pool, Options{
		MaxRetries: 2,
		Backoff:    BackoffConstant,
		BaseDelay:  time.Millisecond,
		Command:    "exit 1",
	})

	require.Equal(t, calculator.StatusFailed, outcome.Status)
	require.Equal(t, 2, outcome.Attempts)
}

func TestRunCacheHit(t *testing.T) {
	cacheRoot := t.TempDir()
	cachedCase := filepath.Join(cacheRoot, "prev")
	require.NoError(t, os.MkdirAll(cachedCase, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cachedCase, "in.txt"), []byte("x"), 0o644))
	manifest, err := hash.Digest(cachedCase, hash.SHA256)
	require.NoError(t, err)
	require.NoError(t, hash.WriteManifest(cachedCase, manifest))
	require.NoError(t, os.WriteFile(filepath.Join(cachedCase, "out.txt"), []byte("42"), 0o644))

	destDir := filepath.Join(t.TempDir(), "case0")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	pool := calculator.New([]calculator.Adapter{calculator.NewCacheAdapter(calculator.Spec{Kind: calculator.KindCache, CachePath: cacheRoot})})
	c := fzcase.Case{Index: 0, Combo: map[string]any{}, Name: "single case"}
	m := model.Defaults()

	outcome := Run(context.Background(), m, c, destDir, manifest, pool, Options{MaxRetries: 1})
	require.True(t, outcome.CacheHit)
	require.Equal(t, calculator.StatusDone, outcome.Status)
}

func TestRetryDelayBackoffs(t *testing.T) {
	require.Equal(t, time.Second, retryDelay(time.Second, BackoffConstant, 3))
	require.Equal(t, 3*time.Second, retryDelay(time.Second, BackoffLinear, 3))
	require.Equal(t, 4*time.Second, retryDelay(time.Second, BackoffExponential, 3))
}
