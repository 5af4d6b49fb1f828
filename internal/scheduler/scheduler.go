// Package scheduler implements the Parallel Scheduler (spec.md §7): a
// bounded worker pool over a list of cases, grounded on
// runtime/decorators/parallel.go's semaphore-channel-plus-WaitGroup
// pattern, generalized from "N parallel branches of one plan node" to
// "N cases drained from a pool of calculator leases".
package scheduler

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Funz/fz-sub001/internal/fzcase"
)

// Callbacks lets a caller observe scheduler progress without coupling
// the scheduler to any particular UI (CLI progress line, test
// assertions, a future TUI).
type Callbacks struct {
	OnStart     func(total int)
	OnCaseStart func(c fzcase.Case)
	OnCaseDone  func(result any)
	OnProgress  func(completed, total int, etaSeconds float64)
	OnComplete  func()
}

// Work is the per-case function the scheduler drives; it must itself
// respect ctx cancellation for the scheduler's interrupt handling to be
// effective.
type Work func(ctx context.Context, c fzcase.Case) any

// Run executes work for every case in cases with at most maxWorkers
// concurrent in flight, collating results by case_index regardless of
// completion order (spec.md §7.2), and returns results in that same
// case_index order. A nil/zero maxWorkers means "one worker" (the
// minimum valid pool size); callers compute min(max_workers,
// non_cache_instances, num_cases) before calling Run, per spec.md §7.1's
// worker-pool sizing formula.
func Run(parent context.Context, cases []fzcase.Case, maxWorkers int, work Work, cb Callbacks) []any {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Second interrupt forces a hard stop via a child cancel, matching
	// spec.md §7.3's "first signal is graceful, second is forced".
	forceCtx, forceCancel := context.WithCancel(ctx)
	defer forceCancel()

	interruptCount := 0
	var interruptMu sync.Mutex
	go func() {
		<-ctx.Done()
		interruptMu.Lock()
		interruptCount++
		interruptMu.Unlock()
	}()

	results := make([]any, len(cases))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	if cb.OnStart != nil {
		cb.OnStart(len(cases))
	}

	var completedMu sync.Mutex
	completed := 0
	startTime := time.Now()

	for i, c := range cases {
		wg.Add(1)
		idx, item := i, c

		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			interruptMu.Lock()
			n := interruptCount
			interruptMu.Unlock()
			if n >= 2 {
				return // hard stop: don't even start unstarted cases
			}

			if cb.OnCaseStart != nil {
				cb.OnCaseStart(item)
			}

			results[idx] = work(forceCtx, item)

			if cb.OnCaseDone != nil {
				cb.OnCaseDone(results[idx])
			}

			completedMu.Lock()
			completed++
			done := completed
			completedMu.Unlock()

			if cb.OnProgress != nil {
				eta := estimateETA(startTime, done, len(cases))
				cb.OnProgress(done, len(cases), eta)
			}
		}()
	}

	wg.Wait()

	if cb.OnComplete != nil {
		cb.OnComplete()
	}

	return results
}

// estimateETA projects remaining wall-clock time from the running
// average per-case duration observed so far, per spec.md §7.2's "ETA via
// running average".
func estimateETA(start time.Time, completed, total int) float64 {
	if completed == 0 {
		return 0
	}
	elapsed := time.Since(start).Seconds()
	avg := elapsed / float64(completed)
	remaining := total - completed
	return avg * float64(remaining)
}

// WorkerCount computes min(maxWorkers, nonCacheInstances, numCases), the
// worker-pool sizing rule of spec.md §7.1. maxWorkers <= 0 means "auto",
// which defers entirely to nonCacheInstances and numCases.
func WorkerCount(maxWorkers, nonCacheInstances, numCases int) int {
	n := nonCacheInstances
	if numCases < n {
		n = numCases
	}
	if maxWorkers > 0 && maxWorkers < n {
		n = maxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}
