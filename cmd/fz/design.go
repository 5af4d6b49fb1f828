package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/config"
	"github.com/Funz/fz-sub001/internal/design"
	"github.com/Funz/fz-sub001/internal/dirguard"
	"github.com/Funz/fz-sub001/internal/evaluator"
	"github.com/Funz/fz-sub001/internal/fzlog"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/historylog"
	"github.com/Funz/fz-sub001/internal/orchestrate"
	"github.com/Funz/fz-sub001/internal/runner"
)

// designOpts is the JSON shape of the optional "-o" argument to `design`:
// a plain object of which only the driver's own max_iters is decoded;
// any other keys are ignored.
type designOpts struct {
	MaxIters int `json:"max_iters"`
}

func newDesignCmd() *cobra.Command {
	var inputPath, rangesArg, modelArg, expr, algorithmArg, optsArg, calculatorsArg, resultsDir string

	cmd := &cobra.Command{
		Use:   "design",
		Short: "drive an iterative design-of-experiments algorithm against a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || rangesArg == "" || modelArg == "" || expr == "" || algorithmArg == "" {
				_ = cmd.Help()
				return fmt.Errorf("design: -i, -v, -m, -e and -a are required")
			}
			if resultsDir == "" {
				resultsDir = "results"
			}

			m, warnings, err := resolveModel(modelArg)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}

			inputVars, _, warnings, err := resolveAssignment("assignments", rangesArg)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}
			outputVars := make([]string, len(m.Output))
			for i, o := range m.Output {
				outputVars[i] = o.Key
			}

			opts := designOpts{MaxIters: 20}
			if strings.TrimSpace(optsArg) != "" {
				if err := json.Unmarshal([]byte(optsArg), &opts); err != nil {
					return fmt.Errorf("design: invalid -o opts: %w", err)
				}
			}

			code, interpreter, err := loadAlgorithmSource(algorithmArg)
			if err != nil {
				return err
			}

			finalDir, renamedFrom, err := dirguard.Ensure(resultsDir)
			if err != nil {
				return err
			}
			if renamedFrom != "" {
				cmd.Printf("note: existing %s renamed to %s\n", resultsDir, renamedFrom)
			}
			rewritten := dirguard.RewriteSelfCache(splitCalculators(calculatorsArg), renamedFrom)

			specs, err := resolveCalculators(strings.Join(rewritten, ","), modelID(m))
			if err != nil {
				return err
			}
			command := firstCommand(specs)
			if command == "" {
				return fmt.Errorf("design: no calculator URI in -c supplied a command")
			}

			ctx, cancel := newCancellableContext()
			defer cancel()

			pool, err := calculator.BuildPool(ctx, specs)
			if err != nil {
				return fmt.Errorf("design: building calculator pool: %w", err)
			}
			defer pool.CloseAll()

			factory := evaluator.ForInterpreter(interpreter)
			session, err := factory.Open(ctx, map[string]any{})
			if err != nil {
				return fmt.Errorf("design: opening %s algorithm session: %w", interpreter, err)
			}
			defer session.Close()
			if err := session.Exec(ctx, code); err != nil {
				return fmt.Errorf("design: loading algorithm %q: %w", algorithmArg, err)
			}

			cfg := config.FromEnv()
			logger := fzlog.New(cmd.ErrOrStderr(), cfg.LogLevel, fzlog.ShouldUseColor(false))

			driveOpts := design.Options{
				InputVars:  inputVars,
				OutputVars: outputVars,
				Expr:       expr,
				MaxIters:   opts.MaxIters,
				Logger:     logger,
				Run: orchestrate.Options{
					InputRoot:   inputPath,
					ResultsRoot: finalDir,
					MaxWorkers:  cfg.MaxWorkers,
					MaxRetries:  cfg.MaxRetries,
					HashAlgo:    hash.SHA256,
					Logger:      logger,
					RunnerOptions: runner.Options{
						MaxRetries: cfg.MaxRetries,
						Backoff:    runner.BackoffExponential,
						BaseDelay:  time.Second,
						Timeout:    time.Duration(cfg.RunTimeoutSeconds) * time.Second,
						Command:    command,
						Logger:     logger,
					},
				},
			}

			algo := design.NewEvaluatorAlgorithm(session)
			onIteration := func(it design.Iteration) {
				logger.Info("design iteration: %d cases, scalars=%v", len(it.Combos), it.ScalarOutput)
			}

			analysis, err := design.Drive(ctx, m, pool, algo, driveOpts, onIteration)
			if err != nil {
				return fmt.Errorf("design: %w", err)
			}

			data, err := json.MarshalIndent(analysis, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			_ = historylog.Append(".", historylog.RunRecord{
				Time:    time.Now(),
				SubCmd:  "design",
				Model:   modelArg,
				Summary: fmt.Sprintf("expr=%s algorithm=%s", expr, algorithmArg),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the input template file or directory")
	cmd.Flags().StringVarP(&rangesArg, "var", "v", "", "variable ranges (JSON, path, or alias)")
	cmd.Flags().StringVarP(&modelArg, "model", "m", "", "model descriptor (JSON, path, or alias)")
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "scalar projection expression over model.output")
	cmd.Flags().StringVarP(&algorithmArg, "algorithm", "a", "", "algorithm plugin (path or .fz/algorithms alias)")
	cmd.Flags().StringVarP(&optsArg, "opts", "o", "", "algorithm/driver options (JSON object, e.g. {\"max_iters\":10})")
	cmd.Flags().StringVarP(&calculatorsArg, "calculators", "c", "sh://", "comma-separated calculator URIs or aliases")
	cmd.Flags().StringVarP(&resultsDir, "results", "r", "results", "results root directory")

	return cmd
}

