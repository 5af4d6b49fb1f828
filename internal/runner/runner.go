// Package runner implements the Case Runner (spec.md §6): cache-first
// lookup, then retry-across-instances execution of one case against the
// calculator pool, grounded on runtime/decorators/retry.go's retryNode
// (generalized from "same node, N attempts" to "different calculator
// instance per attempt").
package runner

import (
	"context"
	"math"
	"time"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/fzlog"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/historylog"
	"github.com/Funz/fz-sub001/internal/model"
	"github.com/Funz/fz-sub001/internal/template"
)

// Backoff selects the retry delay growth strategy, named identically to
// runtime/decorators/retry.go's "backoff" param enum.
type Backoff string

const (
	BackoffConstant    Backoff = "constant"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Options configures one Run call.
type Options struct {
	MaxRetries int
	Backoff    Backoff
	BaseDelay  time.Duration
	Timeout    time.Duration
	Command    string // the calculator-invoked command, e.g. "./run.sh"
	Logger     *fzlog.Logger
}

// Outcome is the final, post-retry result for one case.
type Outcome struct {
	Case          fzcase.Case
	Status        calculator.AttemptStatus
	Attempts      int
	CalculatorID  string
	CacheHit      bool
	Outputs       map[string]any
	Warnings      []string
	Err           error
	Duration      time.Duration
}

// Run executes one case: a cache-first check against any cache:// pool
// members, then live execution with retry-across-instances up to
// opts.MaxRetries, honoring model.RetryPolicy (whether a timeout consumes
// a retry attempt) and model.CachePolicy (whether a cache hit containing
// a null output value is accepted).
func Run(ctx context.Context, m model.Model, c fzcase.Case, caseDir string, manifest []hash.Entry, pool *calculator.Pool, opts Options) Outcome {
	start := time.Now()

	if outcome, ok := tryCache(ctx, m, c, caseDir, manifest, pool, opts); ok {
		outcome.Duration = time.Since(start)
		return outcome
	}

	excluded := map[string]bool{}
	// cache:// entries only serve tryCache hits, so live attempts start
	// with them excluded.
	for _, ca := range pool.CacheAdapters() {
		excluded[ca.ID()] = true
	}
	var last calculator.AttemptResult
	var lastID string
	attempts := 0

	maxAttempts := opts.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Outcome{Case: c, Status: calculator.StatusInterrupted, Attempts: attempts, Err: ctx.Err(), Duration: time.Since(start)}
		}

		lease, ok := pool.AcquireExcluding(c.Index, excluded)
		if !ok {
			if lease, ok = pool.Acquire(c.Index); !ok {
				continue
			}
		}
		attempts++
		lastID = lease.ID()

		// RemoteStager adapters (SSH) run against a temp working directory
		// on their own backend rather than caseDir directly: the runner is
		// the single authority that stages inputs into it before Execute
		// and collects outputs back into caseDir afterward (spec.md §3,
		// §4.5's SSH bullet, §4.6 step 3; DESIGN NOTES §9). Adapters that
		// share the local filesystem (LocalAdapter) skip this entirely and
		// run straight in caseDir.
		workingDir := caseDir
		stager, remote := lease.Adapter().(calculator.RemoteStager)

		var result calculator.AttemptResult
		var err error
		var attemptStart, attemptEnd time.Time

		if remote {
			workingDir, err = stager.Stage(ctx, caseDir, hash.Filenames(manifest))
		}
		if err == nil {
			attemptStart = time.Now()
			result, err = lease.Adapter().Execute(ctx, workingDir, hash.Filenames(manifest), opts.Command, opts.Timeout)
			attemptEnd = time.Now()
			if remote {
				if collectErr := stager.Collect(ctx, workingDir, caseDir); collectErr != nil && err == nil {
					err = collectErr
				}
				_ = stager.Cleanup(ctx, workingDir)
			}
		}
		lease.Release()

		if err != nil {
			last = calculator.AttemptResult{Status: calculator.StatusError, Err: err}
		} else {
			last = result
			// out.txt/err.txt/log.txt are best-effort bookkeeping: a
			// failure to write them never overrides the attempt's own
			// status. Cache hits never reach this branch, since tryCache
			// returns before the attempt loop.
			_ = historylog.WriteExecutionArtifacts(caseDir, historylog.ExecutionFields{
				Command:  opts.Command,
				ExitCode: result.ExitCode,
				Start:    attemptStart,
				End:      attemptEnd,
				WorkDir:  caseDir,
				Stdout:   result.Stdout,
				Stderr:   result.Stderr,
			})
		}

		if last.Status == calculator.StatusDone {
			break
		}
		if last.Status == calculator.StatusInterrupted {
			break
		}
		if last.Status == calculator.StatusTimeout && m.RetryPolicy == "retry_except_timeout" {
			break
		}

		excluded[lastID] = true
		if attempt < maxAttempts {
			wait := retryDelay(opts.BaseDelay, opts.Backoff, attempt)
			if opts.Logger != nil {
				opts.Logger.Debug("case %s attempt %d failed (%s), retrying in %s", c.Name, attempt, last.Status, wait)
			}
			if err := waitContext(ctx, wait); err != nil {
				return Outcome{Case: c, Status: calculator.StatusInterrupted, Attempts: attempts, CalculatorID: lastID, Err: err, Duration: time.Since(start)}
			}
		}
	}

	outcome := Outcome{
		Case:         c,
		Status:       last.Status,
		Attempts:     attempts,
		CalculatorID: lastID,
		Err:          last.Err,
		Duration:     time.Since(start),
	}

	if last.Status == calculator.StatusDone {
		outputs, warnings := template.ExtractOutputs(ctx, m, caseDir)
		outcome.Outputs = outputs
		outcome.Warnings = warnings
	}

	return outcome
}

// tryCache checks every cache:// pool member for a manifest-equal match,
// in pool order. Cache lookups are read-only filesystem scans and are
// not leased: unlike live calculators they have no execution capacity to
// serialize access to.
func tryCache(ctx context.Context, m model.Model, c fzcase.Case, caseDir string, manifest []hash.Entry, pool *calculator.Pool, opts Options) (Outcome, bool) {
	for _, cacheAdapter := range pool.CacheAdapters() {
		matchDir, found, err := cacheAdapter.Lookup(manifest)
		if err != nil || !found {
			continue
		}

		if err := calculator.CopyResults(matchDir, caseDir); err != nil {
			continue
		}

		outputs, warnings := template.ExtractOutputs(ctx, m, caseDir)
		if m.CachePolicy == "strict" && hasNullOutput(outputs) {
			continue
		}

		return Outcome{
			Case:         c,
			Status:       calculator.StatusDone,
			Attempts:     0,
			CalculatorID: cacheAdapter.ID(),
			CacheHit:     true,
			Outputs:      outputs,
			Warnings:     warnings,
		}, true
	}
	return Outcome{}, false
}

func hasNullOutput(outputs map[string]any) bool {
	for _, v := range outputs {
		if v == nil {
			return true
		}
	}
	return false
}

func retryDelay(base time.Duration, backoff Backoff, attempt int) time.Duration {
	if attempt < 1 {
		return base
	}
	switch backoff {
	case BackoffConstant:
		return base
	case BackoffLinear:
		return time.Duration(attempt) * base
	default:
		return time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	}
}

func waitContext(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

