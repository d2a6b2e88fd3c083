package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
)

// LoggingMiddleware logs one structured line per request: method, path,
// status, bytes written, duration, and the request id stamped by
// RequestIDMiddleware. It wraps the ResponseWriter with httpsnoop so that
// SSE handlers downstream keep a working Flush().
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m := httpsnoop.CaptureMetrics(next, w, r)

			logger.Info("http request",
				slog.String("request_id", RequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Int64("bytes", m.Written),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
