package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/discover"
	"github.com/Funz/fz-sub001/internal/historylog"
	"github.com/Funz/fz-sub001/internal/model"
)

func newListCmd() *cobra.Command {
	var modelsGlob, calculatorsGlob string
	var check, history bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "discover installed models, calculators, and run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history {
				return listHistory(cmd)
			}

			// With neither --models nor --calculators given, list both.
			both := modelsGlob == "" && calculatorsGlob == ""
			if both || modelsGlob != "" {
				listKind(cmd, "models", modelsGlob, check)
			}
			if both || calculatorsGlob != "" {
				listKind(cmd, "calculators", calculatorsGlob, check)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelsGlob, "models", "", "glob over installed models")
	cmd.Flags().StringVar(&calculatorsGlob, "calculators", "", "glob over installed calculators")
	cmd.Flags().BoolVar(&check, "check", false, "validate each discovered descriptor")
	cmd.Flags().BoolVar(&history, "history", false, "print the run-level history ledger instead")

	return cmd
}

func listKind(cmd *cobra.Command, kind, pattern string, check bool) {
	entries, err := discover.ListDir(".fz/" + kind)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "list %s: %v\n", kind, err)
		return
	}
	matched := discover.Match(entries, pattern)

	cmd.Printf("%s:\n", kind)
	for _, e := range matched {
		line := "  " + e.Name
		if check {
			if ok, msg := checkDescriptor(kind, e.Path); ok {
				line += "  [ok]"
			} else {
				line += "  [invalid: " + msg + "]"
			}
		}
		cmd.Println(line)
	}
	if len(matched) == 0 && pattern != "" {
		if close := discover.Suggest(entries, pattern, 3); len(close) > 0 {
			cmd.Printf("  no match for %q; closest: %v\n", pattern, close)
		}
	}
}

func checkDescriptor(kind, path string) (bool, string) {
	if kind != "models" {
		return true, ""
	}
	raw, _, err := model.LoadArg("models", path)
	if err != nil {
		return false, err.Error()
	}
	if _, err := model.Parse(raw); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func listHistory(cmd *cobra.Command) error {
	records, err := historylog.Read(".")
	if err != nil {
		return fmt.Errorf("list --history: %w", err)
	}
	for _, r := range records {
		cmd.Printf("%s  %-8s  %-20s  %s\n", r.Time.Format("2006-01-02T15:04:05"), r.SubCmd, r.Model, r.Summary)
	}
	return nil
}
