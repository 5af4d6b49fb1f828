package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fz",
		Short:         "fz runs parametric computations against pluggable calculators",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(
		newInputCmd(),
		newCompileCmd(),
		newOutputCmd(),
		newRunCmd(),
		newDesignCmd(),
		newListCmd(),
		newInstallCmd(),
		newUninstallCmd(),
	)

	exitCode := 0
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fz:", err)
		exitCode = 1
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
