// Package trace holds the TraceRecord type and the append-only capture log
// that the proxy writes to and the cook pipeline reads from.
package trace

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is a single captured upstream call: one request, its (possibly
// streamed) response, timing, and an optional error. Records are
// independent of one another; a capture log is simply a sequence of them.
type Record struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Request    json.RawMessage `json:"request"`
	Response   json.RawMessage `json:"response,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
}

// New creates a Record with a fresh id and the current wall-clock time,
// matching a request's arrival at the proxy.
func New(request json.RawMessage) *Record {
	return &Record{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Request:   request,
	}
}

// StreamResponse is the shape stored in Record.Response when the upstream
// reply was Server-Sent Events: the raw lines as received, verbatim and in
// order, with trailing newlines stripped.
type StreamResponse struct {
	Stream   bool     `json:"stream"`
	SSELines []string `json:"sse_lines"`
}

// NonJSONBody is the marker stored for a request or response body that is
// not valid JSON. Data marshals as base64 via encoding/json's standard
// []byte handling.
type NonJSONBody struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// EncodeBody returns body as a structured value suitable for a Record's
// Request or Response field: the body itself when it's valid JSON,
// otherwise a NonJSONBody marker carrying the content type alongside it.
func EncodeBody(contentType string, body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	marker, err := json.Marshal(NonJSONBody{ContentType: contentType, Data: body})
	if err != nil {
		return json.RawMessage(`null`)
	}
	return marker
}
