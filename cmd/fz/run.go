package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/config"
	"github.com/Funz/fz-sub001/internal/dirguard"
	"github.com/Funz/fz-sub001/internal/fzlog"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/historylog"
	"github.com/Funz/fz-sub001/internal/orchestrate"
	"github.com/Funz/fz-sub001/internal/render"
	"github.com/Funz/fz-sub001/internal/runner"
)

func newRunCmd() *cobra.Command {
	var inputPath, modelArg, assignmentArg, resultsDir, calculatorsArg, format string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a full parametric sweep against one or more calculators",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || modelArg == "" || assignmentArg == "" {
				_ = cmd.Help()
				return fmt.Errorf("run: -i, -m and -v are required")
			}
			if resultsDir == "" {
				resultsDir = "results"
			}

			m, warnings, err := resolveModel(modelArg)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}

			names, assignment, warnings, err := resolveAssignment("assignments", assignmentArg)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}

			// The Unique-Directory Guard must run before calculator specs
			// are parsed: a literal "cache://_" token means "this run's own
			// previous results directory", which only exists once Ensure
			// has (possibly) renamed it out of the way.
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
				return fmt.Errorf("run: no calculator URI in -c supplied a command")
			}

			ctx, cancel := newCancellableContext()
			defer cancel()

			pool, err := calculator.BuildPool(ctx, specs)
			if err != nil {
				return fmt.Errorf("run: building calculator pool: %w", err)
			}
			defer pool.CloseAll()

			cfg := config.FromEnv()
			logger := fzlog.New(cmd.ErrOrStderr(), cfg.LogLevel, fzlog.ShouldUseColor(false))

			opts := orchestrate.Options{
				InputRoot:   inputPath,
				ResultsRoot: finalDir,
				VarNames:    names,
				Assignment:  assignment,
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
			}

			results, t, err := orchestrate.Run(ctx, m, pool, opts)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			out, err := render.Render(t, render.ParseFormat(format))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)

			failures := 0
			var firstFailure error
			for _, r := range results {
				if r.Outcome.Status != calculator.StatusDone {
					failures++
					if firstFailure == nil {
						firstFailure = fmt.Errorf("run: case %s ended in status %s", r.Case.Name, r.Outcome.Status)
					}
				}
			}
			_ = historylog.Append(".", historylog.RunRecord{
				Time:    time.Now(),
				SubCmd:  "run",
				Model:   modelArg,
				Summary: fmt.Sprintf("%d cases, %d failed", len(results), failures),
			})

			return firstFailure
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the input template file or directory")
	cmd.Flags().StringVarP(&modelArg, "model", "m", "", "model descriptor (JSON, path, or alias)")
	cmd.Flags().StringVarP(&assignmentArg, "var", "v", "", "variable assignment (JSON, path, or alias)")
	cmd.Flags().StringVarP(&resultsDir, "results", "r", "results", "results root directory")
	cmd.Flags().StringVarP(&calculatorsArg, "calculators", "c", "sh://", "comma-separated calculator URIs or aliases")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|csv|markdown|html")

	return cmd
}
