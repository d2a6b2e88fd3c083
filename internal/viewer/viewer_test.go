package viewer

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tjfontaine/llmtrace/internal/artifact"
	"github.com/tjfontaine/llmtrace/internal/httpserver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCaptureLog(t *testing.T, path string) {
	t.Helper()
	line := `{"id":"r1","timestamp":"2024-01-01T00:00:00Z","request":{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]},` +
		`"response":{"id":"c1","model":"gpt-4","choices":[{"message":{"role":"assistant","content":"hi there"}}]},` +
		`"duration_ms":10,"error":""}` + "\n"
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		t.Fatalf("write capture log: %v", err)
	}
}

func TestNew_CooksOnFirstOpen(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "capture.jsonl")
	writeCaptureLog(t, logPath)

	v, err := New(logPath, nil, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var doc artifact.Document
	if err := json.Unmarshal(v.Latest(), &doc); err != nil {
		t.Fatalf("unmarshal latest artifact: %v", err)
	}
	if len(doc.Requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(doc.Requests))
	}

	if _, err := os.Stat(logPath + ".artifact.json"); err != nil {
		t.Errorf("artifact cache file not written: %v", err)
	}
}

func TestNew_ReusesFreshCache(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "capture.jsonl")
	writeCaptureLog(t, logPath)

	if _, err := New(logPath, nil, discardLogger()); err != nil {
		t.Fatalf("first New() error = %v", err)
	}

	// Make the cache file newer than the capture log and distinguishable,
	// then confirm a second open reads the cache rather than re-cooking.
	cachePath := logPath + ".artifact.json"
	sentinel := `{"messages":[],"tools":[],"requests":[]}`
	if err := os.WriteFile(cachePath, []byte(sentinel), 0o644); err != nil {
		t.Fatalf("overwrite cache: %v", err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(cachePath, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	v, err := New(logPath, nil, discardLogger())
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	if string(v.Latest()) != sentinel {
		t.Errorf("Latest() = %s, want cached sentinel contents", v.Latest())
	}
}

func TestMount_ServesDataJSON(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "capture.jsonl")
	writeCaptureLog(t, logPath)

	v, err := New(logPath, nil, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	srv := httpserver.New("127.0.0.1", 0, "llmtrace-viewer-test", discardLogger())
	v.Mount(srv)

	req := httptest.NewRequest(http.MethodGet, "/data.json", nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var doc artifact.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if len(doc.Requests) != 1 {
		t.Errorf("got %d requests, want 1", len(doc.Requests))
	}
}

func TestMount_LocalEndpointCooksArbitraryPath(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "capture.jsonl")
	writeCaptureLog(t, primary)
	other := filepath.Join(dir, "other.jsonl")
	writeCaptureLog(t, other)

	v, err := New(primary, nil, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv := httpserver.New("127.0.0.1", 0, "llmtrace-viewer-test", discardLogger())
	v.Mount(srv)

	req := httptest.NewRequest(http.MethodGet, "/_local?path="+other, nil)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
