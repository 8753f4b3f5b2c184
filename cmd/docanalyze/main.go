package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "docanalyze",
		Short:         "Analyze legal documents from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr: debug|info|warn|error")

	root.AddCommand(analyzeCmd(&logLevel), languagesCmd(&logLevel), supportedTypesCmd(&logLevel))
	return root
}
