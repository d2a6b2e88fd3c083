// Package httpserver builds the chi-based HTTP router shared by the proxy
// and the viewer: request-id tagging, structured request logging, panic
// recovery, and OpenTelemetry instrumentation.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownGrace = 10 * time.Second

// Server wraps a chi.Mux with the middleware stack common to every
// HTTP-facing component of llmtrace, plus lifecycle management for
// graceful shutdown on SIGINT/SIGTERM.
type Server struct {
	Router *chi.Mux
	Addr   string

	logger *slog.Logger
	srv    *http.Server
}

// New builds a Server listening on host:port, with spanName identifying
// this server's otelhttp instrumentation (e.g. "llmtrace-proxy").
func New(host string, port int, spanName string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, spanName)
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	return &Server{
		Router: r,
		Addr:   addr,
		logger: logger,
		srv:    &http.Server{Addr: addr, Handler: r},
	}
}

// Run starts serving and blocks until ctx is cancelled, at which point it
// gracefully shuts down and returns nil. A bind failure is returned
// immediately, before ctx is ever observed.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		<-errCh
		return nil
	}
}
