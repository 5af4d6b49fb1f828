// Package design implements the Iterative Design Driver (spec.md §4.9):
// a loop over an out-of-process algorithm plugin that proposes case
// batches, runs each through orchestrate.RunCases, projects outputs to a
// scalar, and repeats until the algorithm signals it is done.
//
// The algorithm plugin is driven through the same subprocess JSON-lines
// bridge as formula evaluation (internal/evaluator), since spec.md §4.9
// explicitly scopes the algorithm's implementation out of the core and
// only specifies the function-call contract it exposes.
package design

import (
	"context"
	"fmt"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/evaluator"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/fzlog"
	"github.com/Funz/fz-sub001/internal/model"
	"github.com/Funz/fz-sub001/internal/orchestrate"
)

// Algorithm is the Go-side view of spec.md §4.9's plugin contract. An
// evaluatorAlgorithm (below) adapts a Session to this interface; tests
// can substitute a hand-written fake instead.
type Algorithm interface {
	InitialDesign(ctx context.Context, inputVars, outputVars []string) ([]map[string]any, error)
	NextDesign(ctx context.Context, prevCombos []map[string]any, prevOutputs []float64) ([]map[string]any, error)
	Analysis(ctx context.Context, allCombos []map[string]any, allOutputs []float64) (map[string]any, error)
}

// Options configures one design run.
type Options struct {
	InputVars   []string
	OutputVars  []string
	Expr        string // output projection expression, evaluated over model.output keys
	MaxIters    int
	Run         orchestrate.Options
	Logger      *fzlog.Logger
}

// Iteration is one batch's outcome, kept for on_iteration_preview-style
// callers.
type Iteration struct {
	Combos       []map[string]any
	ScalarOutput []float64
	Results      []orchestrate.CaseResult
}

// Drive runs the initial_design/next_design loop to convergence (or
// MaxIters), then calls analysis once over the accumulated history.
func Drive(ctx context.Context, m model.Model, pool *calculator.Pool, algo Algorithm, opts Options, onIteration func(Iteration)) (map[string]any, error) {
	var allCombos []map[string]any
	var allOutputs []float64

	combos, err := algo.InitialDesign(ctx, opts.InputVars, opts.OutputVars)
	if err != nil {
		return nil, fmt.Errorf("design: initial_design: %w", err)
	}

	for iter := 0; opts.MaxIters <= 0 || iter < opts.MaxIters; iter++ {
		if len(combos) == 0 {
			break
		}

		// Each combo in the batch is an independently proposed point, not
		// an axis to cross against the others (spec.md §4.9): a 10-combo
		// batch must run as 10 cases, never a 10x10 product, so the batch
		// goes straight to RunCases instead of through VarNames/Assignment.
		cases := fzcase.FromCombos(combos)
		runOpts := opts.Run

		results, _, err := orchestrate.RunCases(ctx, m, pool, cases, runOpts)
		if err != nil {
			return nil, fmt.Errorf("design: iteration %d run: %w", iter, err)
		}

		scalars, err := projectScalars(ctx, opts.Expr, results, evaluator.ForInterpreter("python"))
		if err != nil {
			return nil, fmt.Errorf("design: iteration %d projection: %w", iter, err)
		}

		allCombos = append(allCombos, combos...)
		allOutputs = append(allOutputs, scalars...)

		if onIteration != nil {
			onIteration(Iteration{Combos: combos, ScalarOutput: scalars, Results: results})
		}

		combos, err = algo.NextDesign(ctx, combos, scalars)
		if err != nil {
			return nil, fmt.Errorf("design: next_design: %w", err)
		}
	}

	return algo.Analysis(ctx, allCombos, allOutputs)
}

// projectScalars evaluates opts.Expr once per case against that case's
// model.output values, using the same evaluator bridge as formula
// evaluation.
func projectScalars(ctx context.Context, expr string, results []orchestrate.CaseResult, factory evaluator.Factory) ([]float64, error) {
	scalars := make([]float64, len(results))

	for i, r := range results {
		session, err := factory.Open(ctx, r.Outcome.Outputs)
		if err != nil {
			return nil, err
		}
		value, err := session.Eval(ctx, expr)
		session.Close()
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", r.Case.Name, err)
		}
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err != nil {
			return nil, fmt.Errorf("case %s: projection result %q is not numeric: %w", r.Case.Name, value, err)
		}
		scalars[i] = f
	}

	return scalars, nil
}

// evaluatorAlgorithm adapts an evaluator.Session running a user-supplied
// algorithm script to the Algorithm interface, by calling its three
// named functions through Eval with JSON-encoded arguments and decoding
// the JSON result.
type evaluatorAlgorithm struct {
	session evaluator.Session
}

// NewEvaluatorAlgorithm wraps an already-open session (its globals
// already populated with the user's algorithm functions) as an
// Algorithm.
func NewEvaluatorAlgorithm(session evaluator.Session) Algorithm {
	return &evaluatorAlgorithm{session: session}
}

func (a *evaluatorAlgorithm) InitialDesign(ctx context.Context, inputVars, outputVars []string) ([]map[string]any, error) {
	return a.callListOfCombos(ctx, fmt.Sprintf("initial_design(%s, %s)", pyStrList(inputVars), pyStrList(outputVars)))
}

func (a *evaluatorAlgorithm) NextDesign(ctx context.Context, prevCombos []map[string]any, prevOutputs []float64) ([]map[string]any, error) {
	return a.callListOfCombos(ctx, fmt.Sprintf("next_design(%s, %v)", pyCombos(prevCombos), prevOutputs))
}

func (a *evaluatorAlgorithm) Analysis(ctx context.Context, allCombos []map[string]any, allOutputs []float64) (map[string]any, error) {
	out, err := a.session.Eval(ctx, fmt.Sprintf("analysis(%s, %v)", pyCombos(allCombos), allOutputs))
	if err != nil {
		return nil, err
	}
	return decodeJSONObject(out)
}

func (a *evaluatorAlgorithm) callListOfCombos(ctx context.Context, expr string) ([]map[string]any, error) {
	out, err := a.session.Eval(ctx, expr)
	if err != nil {
		return nil, err
	}
	return decodeListOfCombos(out)
}
