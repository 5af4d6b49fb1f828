package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Funz/fz-sub001/internal/installer"
)

func newInstallCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "install <model|algorithm> <source>",
		Short: "install a model or algorithm from a GitHub shortname, URL, or local zip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				_ = cmd.Help()
				return err
			}
			result, err := installer.Install(kind, args[1], global)
			if err != nil {
				return fmt.Errorf("install: %w", err)
			}
			cmd.Printf("installed %s %q at %s\n", args[0], result.Name, result.InstallPath)
			for _, f := range result.InstalledFiles {
				cmd.Println("  " + f)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "install under ~/.fz instead of ./.fz")
	return cmd
}

func newUninstallCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "uninstall <model|algorithm> <name>",
		Short: "remove an installed model or algorithm",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				_ = cmd.Help()
				return err
			}
			ok, err := installer.Uninstall(kind, args[1], global)
			if err != nil {
				return fmt.Errorf("uninstall: %w", err)
			}
			if !ok {
				cmd.Printf("%s %q was not installed\n", args[0], args[1])
				return nil
			}
			cmd.Printf("uninstalled %s %q\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "uninstall from ~/.fz instead of ./.fz")
	return cmd
}

func parseKind(s string) (installer.Kind, error) {
	switch s {
	case "model":
		return installer.KindModel, nil
	case "algorithm":
		return installer.KindAlgorithm, nil
	default:
		return 0, fmt.Errorf("unknown kind %q, want \"model\" or \"algorithm\"", s)
	}
}
