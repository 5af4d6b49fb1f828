package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/render"
	"github.com/Funz/fz-sub001/internal/table"
	"github.com/Funz/fz-sub001/internal/template"
)

func newOutputCmd() *cobra.Command {
	var pathGlob, modelArg, format string

	cmd := &cobra.Command{
		Use:   "output",
		Short: "extract output values from one or more finished case directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pathGlob == "" || modelArg == "" {
				_ = cmd.Help()
				return fmt.Errorf("output: -o and -m are required")
			}

			m, warnings, err := resolveModel(modelArg)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}

			dirs, err := filepath.Glob(pathGlob)
			if err != nil {
				return fmt.Errorf("output: bad glob %q: %w", pathGlob, err)
			}
			if len(dirs) == 0 {
				dirs = []string{pathGlob}
			}

			ctx, cancel := newCancellableContext()
			defer cancel()

			rows := make([]table.Row, len(dirs))
			dirNames := make([]string, len(dirs))
			outputOrder := make([]string, len(m.Output))
			for i, o := range m.Output {
				outputOrder[i] = o.Key
			}

			for i, dir := range dirs {
				outputs, warnings := template.ExtractOutputs(ctx, m, dir)
				printWarnings(cmd, warnings)
				rows[i] = table.Row{CaseIndex: i, Outputs: outputs, Path: dir}
				dirNames[i] = filepath.Base(dir)
			}

			t := table.Assemble(rows, outputOrder)
			t = table.PromoteDirNameColumns(t, dirNames)

			out, err := render.Render(t, render.ParseFormat(format))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathGlob, "output", "o", "", "path or glob of finished case directories")
	cmd.Flags().StringVarP(&modelArg, "model", "m", "", "model descriptor (JSON, path, or alias)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|csv|markdown|html")

	return cmd
}
