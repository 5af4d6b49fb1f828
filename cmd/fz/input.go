package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/render"
	"github.com/Funz/fz-sub001/internal/table"
	"github.com/Funz/fz-sub001/internal/template"
)

func newInputCmd() *cobra.Command {
	var inputPath, modelArg, format string

	cmd := &cobra.Command{
		Use:   "input",
		Short: "print the variable names discovered in an input template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || modelArg == "" {
				_ = cmd.Help()
				return fmt.Errorf("input: -i and -m are required")
			}

			m, warnings, err := resolveModel(modelArg)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}

			names, err := template.DiscoverPath(m, inputPath)
			if err != nil {
				return fmt.Errorf("discovering variables in %q: %w", inputPath, err)
			}

			sorted := make([]any, 0, len(names))
			for n := range names {
				sorted = append(sorted, n)
			}
			t := table.Table{Columns: []string{"variable"}, Values: map[string][]any{"variable": sortAny(sorted)}}

			out, err := render.Render(t, render.ParseFormat(format))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the input template file or directory")
	cmd.Flags().StringVarP(&modelArg, "model", "m", "", "model descriptor (JSON, path, or alias)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json|csv|markdown|html")

	return cmd
}
