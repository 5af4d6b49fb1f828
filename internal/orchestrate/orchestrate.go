// Package orchestrate implements the "parametric run" of spec.md §4.7:
// given an input template, a variable assignment, and a calculator list,
// materialize every case, schedule its execution, and assemble the
// result table. Both the `fz run` command and the Iterative Design
// Driver (§4.9) go through this one entry point.
package orchestrate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/fzlog"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/historylog"
	"github.com/Funz/fz-sub001/internal/model"
	"github.com/Funz/fz-sub001/internal/prepare"
	"github.com/Funz/fz-sub001/internal/runner"
	"github.com/Funz/fz-sub001/internal/scheduler"
	"github.com/Funz/fz-sub001/internal/table"
)

// Options configures one parametric run.
type Options struct {
	InputRoot     string
	ResultsRoot   string
	VarNames      []string
	Assignment    map[string]any
	MaxWorkers    int
	MaxRetries    int
	RunnerOptions runner.Options
	HashAlgo      hash.Algo
	Logger        *fzlog.Logger
}

// CaseResult pairs a fzcase.Case with its final runner.Outcome, kept
// together so callers (the design driver especially) can re-derive both
// variable combos and output values from one slice.
type CaseResult struct {
	Case    fzcase.Case
	Outcome runner.Outcome
}

// Run materializes and executes every case in one parametric run,
// returning per-case results plus the assembled table. Cases come from
// the Cartesian product of opts.VarNames/opts.Assignment; callers that
// already hold a fixed list of cases (the Iterative Design Driver's
// per-combo batches, per spec.md §4.9) should call RunCases directly.
func Run(ctx context.Context, m model.Model, pool *calculator.Pool, opts Options) ([]CaseResult, table.Table, error) {
	cases := fzcase.Enumerate(opts.VarNames, opts.Assignment)
	return RunCases(ctx, m, pool, cases, opts)
}

// RunCases materializes and executes exactly the given cases, without
// any Cartesian-product expansion. opts.VarNames/opts.Assignment are
// ignored; every other Options field still applies.
func RunCases(ctx context.Context, m model.Model, pool *calculator.Pool, cases []fzcase.Case, opts Options) ([]CaseResult, table.Table, error) {
	maxWorkers := scheduler.WorkerCount(opts.MaxWorkers, pool.NonCacheLen(), len(cases))

	results := make([]CaseResult, len(cases))

	work := func(ctx context.Context, c fzcase.Case) any {
		caseDir := filepath.Join(opts.ResultsRoot, c.Name)
		hist := historylog.NewCaseHistory(c.Name)
		start := time.Now()

		prepResult, err := prepare.Materialize(ctx, m, opts.InputRoot, caseDir, c, opts.HashAlgo)
		if err != nil {
			outcome := runner.Outcome{Case: c, Status: calculator.StatusError, Err: fmt.Errorf("preparing case: %w", err)}
			writeCaseHistory(caseDir, hist, "materialize failed: "+err.Error(), start, outcome)
			return CaseResult{Case: c, Outcome: outcome}
		}
		hist.Append("materialized", time.Now())

		ro := opts.RunnerOptions
		ro.Logger = opts.Logger
		outcome := runner.Run(ctx, m, c, caseDir, prepResult.Manifest, pool, ro)
		outcome.Warnings = append(prepResult.Warnings, outcome.Warnings...)

		event := fmt.Sprintf("ran on %s: %s", outcome.CalculatorID, outcome.Status)
		if outcome.CacheHit {
			event = "resolved from cache"
		}
		writeCaseHistory(caseDir, hist, event, start, outcome)

		return CaseResult{Case: c, Outcome: outcome}
	}

	cb := scheduler.Callbacks{}
	if opts.Logger != nil {
		cb.OnProgress = func(completed, total int, eta float64) {
			opts.Logger.Progress(completed, total, eta)
		}
	}

	raw := scheduler.Run(ctx, cases, maxWorkers, work, cb)
	for i, r := range raw {
		if cr, ok := r.(CaseResult); ok {
			results[i] = cr
		}
	}

	rows := make([]table.Row, len(results))
	for i, r := range results {
		rows[i] = table.Row{
			CaseIndex:  r.Case.Index,
			Vars:       r.Case.Combo,
			Outputs:    r.Outcome.Outputs,
			Path:       filepath.Join(opts.ResultsRoot, r.Case.Name),
			Calculator: r.Outcome.CalculatorID,
			Status:     string(r.Outcome.Status),
			Error:      errString(r.Outcome.Err),
			Command:    opts.RunnerOptions.Command,
		}
	}

	outputOrder := make([]string, len(m.Output))
	for i, o := range m.Output {
		outputOrder[i] = o.Key
	}

	return results, table.Assemble(rows, outputOrder), nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// writeCaseHistory records one case's trace and summary alongside its
// results, best-effort: a failure to write the ledger must never fail
// the case itself.
func writeCaseHistory(caseDir string, hist *historylog.CaseHistory, event string, start time.Time, outcome runner.Outcome) {
	end := time.Now()
	hist.Append(event, end)
	_ = hist.Write(caseDir)

	state := "done"
	if outcome.Status != calculator.StatusDone {
		state = "failed"
	}
	_ = historylog.WriteInfoFile(caseDir, historylog.InfoFields{
		State:      state,
		Calculator: outcome.CalculatorID,
		Error:      errString(outcome.Err),
		Start:      start,
		End:        end,
		Inputs:     outcome.Case.Combo,
		Outputs:    outcome.Outputs,
	})
}
