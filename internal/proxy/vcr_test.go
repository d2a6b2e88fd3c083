package proxy

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tjfontaine/llmtrace/internal/cook"
	"github.com/tjfontaine/llmtrace/internal/testutil"
	"github.com/tjfontaine/llmtrace/internal/trace"
)

// TestProxy_VCRCassetteEndToEnd replays a recorded upstream chat completion
// through the proxy and feeds the resulting capture log straight into Cook,
// exercising proxy -> capture log -> cook as one pipeline.
func TestProxy_VCRCassetteEndToEnd(t *testing.T) {
	rec, cleanup := testutil.NewVCRRecorder(t, "openai_chat")
	defer cleanup()

	cl, logPath := newCaptureLog(t)
	p, err := New(Config{
		Target:    "http://upstream.invalid",
		Capture:   cl,
		Logger:    discardLogger(),
		Transport: testutil.VCRHTTPClient(rec).Transport,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/chat/completions",
		strings.NewReader(`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	p.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "hello from cassette") {
		t.Fatalf("body = %q, want cassette content", w.Body.String())
	}

	cl.Close()
	records, err := trace.ReadRecords(logPath, discardLogger())
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	doc, err := cook.Cook(t.Context(), records, cook.FormatAuto, discardLogger())
	if err != nil {
		t.Fatalf("Cook() error = %v", err)
	}
	if len(doc.Requests) != 1 {
		t.Fatalf("got %d cooked requests, want 1", len(doc.Requests))
	}
	if doc.Requests[0].Model != "gpt-4" {
		t.Errorf("Model = %q, want gpt-4", doc.Requests[0].Model)
	}
}
