package cliapp

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tjfontaine/llmtrace/internal/config"
	"github.com/tjfontaine/llmtrace/internal/httpserver"
	"github.com/tjfontaine/llmtrace/internal/proxy"
	"github.com/tjfontaine/llmtrace/internal/trace"
)

func newProxyCmd(logger *slog.Logger) *cobra.Command {
	defaults, _ := config.Load()

	var (
		port               int
		target             string
		output             string
		denyPrivateTargets bool
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the intercepting proxy, capturing every call to a JSONL log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return exitErr(2, fmt.Errorf("--target is required"))
			}
			if output == "" {
				return exitErr(2, fmt.Errorf("--output is required"))
			}

			capture, err := trace.OpenCaptureLog(output)
			if err != nil {
				return exitErr(1, fmt.Errorf("open capture log: %w", err))
			}
			defer capture.Close()

			p, err := proxy.New(proxy.Config{
				Target:             target,
				Capture:            capture,
				Logger:             logger,
				DenyPrivateTargets: denyPrivateTargets,
			})
			if err != nil {
				return exitErr(2, err)
			}

			srv := httpserver.New("0.0.0.0", port, "llmtrace-proxy", logger)
			srv.Router.Handle("/*", p)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger.Info("proxy listening",
				slog.Int("port", port),
				slog.String("target", target),
				slog.String("output", output),
			)
			if err := srv.Run(ctx); err != nil {
				return exitErr(1, err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", proxyPortDefault(defaults), "port to listen on")
	cmd.Flags().StringVar(&target, "target", proxyTargetDefault(defaults), "upstream base URL")
	cmd.Flags().StringVar(&output, "output", proxyOutputDefault(defaults), "capture log path")
	cmd.Flags().BoolVar(&denyPrivateTargets, "deny-private-targets", defaults != nil && defaults.Proxy.DenyPrivateTargets,
		"reject upstream targets that resolve to loopback, private, or link-local addresses")
	return cmd
}

func proxyPortDefault(d *config.Defaults) int {
	if d != nil && d.Proxy.Port != 0 {
		return d.Proxy.Port
	}
	return 8080
}

func proxyTargetDefault(d *config.Defaults) string {
	if d != nil {
		return d.Proxy.Target
	}
	return ""
}

func proxyOutputDefault(d *config.Defaults) string {
	if d != nil {
		return d.Proxy.Output
	}
	return ""
}
