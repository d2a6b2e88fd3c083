// Package cliapp wires the llmtrace command-line surface: proxy, cook,
// viewer, and version, as cobra subcommands.
package cliapp

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// Execute builds the root command and runs it against os.Args.
func Execute(logger *slog.Logger) error {
	return newRootCmd(logger).Execute()
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "llmtrace",
		Short:         "Intercepting proxy, trace normaliser, and viewer for LLM API traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProxyCmd(logger))
	root.AddCommand(newCookCmd(logger))
	root.AddCommand(newViewerCmd(logger))
	root.AddCommand(newVersionCmd())
	return root
}
