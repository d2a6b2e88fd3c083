package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/tjfontaine/llmtrace/internal/cliapp"
	"github.com/tjfontaine/llmtrace/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	logger := newLogger()
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer("llmtrace", logger)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	if err := cliapp.Execute(logger); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		var exitErr *cliapp.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
