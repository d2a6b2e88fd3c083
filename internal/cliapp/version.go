package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the llmtrace release version, set at build time via
// -ldflags "-X github.com/tjfontaine/llmtrace/internal/cliapp.Version=...".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the llmtrace version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}
}
