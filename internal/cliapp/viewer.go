package cliapp

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tjfontaine/llmtrace/internal/config"
	"github.com/tjfontaine/llmtrace/internal/httpserver"
	"github.com/tjfontaine/llmtrace/internal/viewer"
	"github.com/tjfontaine/llmtrace/internal/viewer/recent"
)

func newViewerCmd(logger *slog.Logger) *cobra.Command {
	defaults, _ := config.Load()

	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "viewer INPUT",
		Short: "Serve the viewer UI and derived artifact for a capture log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			recentPath := filepath.Join(os.TempDir(), "llmtrace-recent.db")
			recentStore, err := recent.Open(recentPath)
			if err != nil {
				logger.Warn("recent store unavailable", slog.String("error", err.Error()))
				recentStore = nil
			} else {
				defer recentStore.Close()
			}

			v, err := viewer.New(input, recentStore, logger)
			if err != nil {
				return exitErr(1, fmt.Errorf("open %s: %w", input, err))
			}

			srv := httpserver.New(host, port, "llmtrace-viewer", logger)
			v.Mount(srv)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			go func() {
				if err := v.Watch(ctx); err != nil {
					logger.Warn("live reload disabled", slog.String("error", err.Error()))
				}
			}()

			logger.Info("viewer listening",
				slog.String("host", host),
				slog.Int("port", port),
				slog.String("input", input),
			)
			if err := srv.Run(ctx); err != nil {
				return exitErr(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", viewerHostDefault(defaults), "host to listen on")
	cmd.Flags().IntVar(&port, "port", viewerPortDefault(defaults), "port to listen on")
	return cmd
}

func viewerHostDefault(d *config.Defaults) string {
	if d != nil && d.Viewer.Host != "" {
		return d.Viewer.Host
	}
	return "127.0.0.1"
}

func viewerPortDefault(d *config.Defaults) int {
	if d != nil && d.Viewer.Port != 0 {
		return d.Viewer.Port
	}
	return 8081
}
