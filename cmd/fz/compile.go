package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/dirguard"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/historylog"
	"github.com/Funz/fz-sub001/internal/prepare"
)

func newCompileCmd() *cobra.Command {
	var inputPath, modelArg, assignmentArg, outDir string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "materialize per-case directories from a variable assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || modelArg == "" || assignmentArg == "" {
				_ = cmd.Help()
				return fmt.Errorf("compile: -i, -m and -v are required")
			}
			if outDir == "" {
				outDir = "results"
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

			finalDir, renamedFrom, err := dirguard.Ensure(outDir)
			if err != nil {
				return err
			}
			if renamedFrom != "" {
				cmd.Printf("note: existing %s renamed to %s\n", outDir, renamedFrom)
			}

			ctx, cancel := newCancellableContext()
			defer cancel()

			cases := fzcase.Enumerate(names, assignment)
			for _, c := range cases {
				caseDir := filepath.Join(finalDir, c.Name)
				if _, err := prepare.Materialize(ctx, m, inputPath, caseDir, c, hash.SHA256); err != nil {
					return fmt.Errorf("materializing case %s: %w", c.Name, err)
				}
				cmd.Println(caseDir)
			}
			_ = historylog.Append(".", historylog.RunRecord{
				Time:    time.Now(),
				SubCmd:  "compile",
				Model:   modelArg,
				Summary: fmt.Sprintf("%d cases materialized", len(cases)),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the input template file or directory")
	cmd.Flags().StringVarP(&modelArg, "model", "m", "", "model descriptor (JSON, path, or alias)")
	cmd.Flags().StringVarP(&assignmentArg, "var", "v", "", "variable assignment (JSON, path, or alias)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "results", "directory to materialize cases into")

	return cmd
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
}
