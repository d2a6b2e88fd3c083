// Package proxy implements the transparent HTTP mirror described by the
// capture pipeline: every request is forwarded to a configured upstream
// unchanged, the response is relayed back byte-for-byte (or line-for-line,
// for SSE), and exactly one TraceRecord is appended to the capture log per
// completed call.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/llmtrace/internal/trace"
)

// Config configures a Proxy.
type Config struct {
	Target             string
	Capture            *trace.CaptureLog
	Logger             *slog.Logger
	ConnectTimeout     time.Duration
	IdleTimeout        time.Duration
	DenyPrivateTargets bool

	// Transport overrides the client's RoundTripper. Tests use this to
	// swap in a VCR cassette player instead of dialing a real upstream.
	Transport http.RoundTripper
}

const (
	defaultConnectTimeout = 30 * time.Second
	defaultIdleTimeout    = 5 * time.Minute
)

// Proxy forwards every request it receives to a single upstream target,
// mirroring status, headers, and body back to the client while recording a
// TraceRecord of the exchange.
type Proxy struct {
	target      *url.URL
	client      *http.Client
	capture     *trace.CaptureLog
	logger      *slog.Logger
	tracer      oteltrace.Tracer
	idleTimeout time.Duration
}

// New builds a Proxy from cfg.
func New(cfg Config) (*Proxy, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("proxy: invalid target %q: %w", cfg.Target, err)
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newTransport(connectTimeout, cfg.DenyPrivateTargets)
	}

	return &Proxy{
		target: target,
		client: &http.Client{
			Transport: transport,
		},
		capture:     cfg.Capture,
		logger:      logger,
		tracer:      otel.Tracer("llmtrace/proxy"),
		idleTimeout: idleTimeout,
	}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := p.tracer.Start(r.Context(), "proxy.call")
	defer span.End()

	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	r.Body.Close()

	rec := trace.New(trace.EncodeBody(r.Header.Get("Content-Type"), body))
	span.SetAttributes(attribute.String("trace.record_id", rec.ID))

	upstreamURL := *p.target
	upstreamURL.Path = joinPath(p.target.Path, r.URL.Path)
	upstreamURL.RawQuery = r.URL.RawQuery

	upstreamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	upstreamReq, err := http.NewRequestWithContext(upstreamCtx, r.Method, upstreamURL.String(), bytes.NewReader(body))
	if err != nil {
		p.fail(w, rec, start, span, fmt.Sprintf("build upstream request: %v", err))
		return
	}
	copyHeaders(upstreamReq.Header, r.Header)

	resp, err := p.client.Do(upstreamReq)
	if err != nil {
		p.fail(w, rec, start, span, classifyErr(err))
		return
	}
	defer resp.Body.Close()
	upstreamBody := newIdleTimeoutReader(resp.Body, p.idleTimeout, cancel)

	copyHeaders(w.Header(), resp.Header)

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		p.relaySSE(w, r, resp, upstreamBody, rec, start, span)
		return
	}
	p.relayBody(w, resp, upstreamBody, rec, start, span)
}

func (p *Proxy) relaySSE(w http.ResponseWriter, r *http.Request, resp *http.Response, body io.Reader, rec *trace.Record, start time.Time, span oteltrace.Span) {
	w.WriteHeader(resp.StatusCode)
	flusher, _ := w.(http.Flusher)

	lines, err := streamSSE(w, flusher, body)
	rec.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.Error = "client disconnected"
		if r.Context().Err() == nil {
			rec.Error = err.Error()
		}
	}

	payload, merr := json.Marshal(trace.StreamResponse{Stream: true, SSELines: lines})
	if merr != nil {
		p.logger.Error("marshal sse response", slog.String("error", merr.Error()))
	} else {
		rec.Response = payload
	}
	span.SetAttributes(
		attribute.Int64("trace.duration_ms", rec.DurationMs),
		attribute.String("trace.error", rec.Error),
	)
	p.appendRecord(rec)
}

func (p *Proxy) relayBody(w http.ResponseWriter, resp *http.Response, upstreamBody io.Reader, rec *trace.Record, start time.Time, span oteltrace.Span) {
	body, err := io.ReadAll(upstreamBody)
	rec.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		p.fail(w, rec, start, span, fmt.Sprintf("read upstream body: %v", err))
		return
	}

	w.WriteHeader(resp.StatusCode)
	w.Write(body)

	rec.Response = trace.EncodeBody(resp.Header.Get("Content-Type"), body)
	span.SetAttributes(
		attribute.Int64("trace.duration_ms", rec.DurationMs),
		attribute.String("trace.error", rec.Error),
	)
	p.appendRecord(rec)
}

// fail records rec with err and writes a 502 to the client. Used only when
// the upstream call itself failed, before any bytes were written downstream.
func (p *Proxy) fail(w http.ResponseWriter, rec *trace.Record, start time.Time, span oteltrace.Span, reason string) {
	rec.Error = reason
	rec.DurationMs = time.Since(start).Milliseconds()
	span.SetAttributes(
		attribute.Int64("trace.duration_ms", rec.DurationMs),
		attribute.String("trace.error", rec.Error),
	)
	http.Error(w, "upstream call failed: "+reason, http.StatusBadGateway)
	p.appendRecord(rec)
}

func (p *Proxy) appendRecord(rec *trace.Record) {
	if p.capture == nil {
		return
	}
	if err := p.capture.Append(rec); err != nil {
		p.logger.Error("append capture log", slog.String("record_id", rec.ID), slog.String("error", err.Error()))
	}
}

func classifyErr(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return err.Error()
}

func joinPath(base, reqPath string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(reqPath, "/") {
		reqPath = "/" + reqPath
	}
	return base + reqPath
}
