package cliapp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tjfontaine/llmtrace/internal/config"
	"github.com/tjfontaine/llmtrace/internal/cook"
	"github.com/tjfontaine/llmtrace/internal/trace"
)

func newCookCmd(logger *slog.Logger) *cobra.Command {
	defaults, _ := config.Load()

	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "cook INPUT",
		Short: "Normalise a capture log into a derived artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				return exitErr(2, fmt.Errorf("-o/--output is required"))
			}
			f := cook.Format(format)
			switch f {
			case cook.FormatAuto, cook.FormatOpenAI, cook.FormatClaude:
			default:
				return exitErr(2, fmt.Errorf("invalid --format %q: want auto, openai, or claude", format))
			}

			records, err := trace.ReadRecords(input, logger)
			if err != nil {
				return exitErr(1, fmt.Errorf("read capture log: %w", err))
			}

			doc, err := cook.Cook(cmd.Context(), records, f, logger)
			if err != nil {
				return exitErr(1, err)
			}

			if err := writeArtifactAtomic(output, doc); err != nil {
				return exitErr(1, err)
			}

			logger.Info("cooked capture log",
				slog.String("input", input),
				slog.String("output", output),
				slog.Int("records", len(records)),
				slog.Int("requests", len(doc.Requests)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "cooked %s records into %s messages, %s tools, %s requests -> %s\n",
				humanize.Comma(int64(len(records))),
				humanize.Comma(int64(len(doc.Messages))),
				humanize.Comma(int64(len(doc.Tools))),
				humanize.Comma(int64(len(doc.Requests))),
				output,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "derived artifact output path")
	cmd.Flags().StringVar(&format, "format", cookFormatDefault(defaults), "dialect hint: auto, openai, or claude")
	return cmd
}

func cookFormatDefault(d *config.Defaults) string {
	if d != nil && d.Cook.Format != "" {
		return d.Cook.Format
	}
	return string(cook.FormatAuto)
}

func writeArtifactAtomic(path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}
