package cook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tjfontaine/llmtrace/internal/trace"
)

// dialect identifies which surface format produced a TraceRecord.
type dialect string

const (
	dialectOpenAI dialect = "openai"
	dialectClaude dialect = "claude"
)

// claudeStreamEventTypes are the SSE event `type` values unique to the
// Claude streaming protocol.
var claudeStreamEventTypes = map[string]bool{
	"message_start":       true,
	"content_block_start": true,
	"content_block_delta": true,
	"message_delta":       true,
	"message_stop":        true,
}

// claudeBlockTypes are content-block `type` values that only ever appear in
// Claude request messages.
var claudeBlockTypes = map[string]bool{
	"tool_use":    true,
	"tool_result": true,
	"thinking":    true,
}

type rawRequest struct {
	Model    string            `json:"model"`
	Stream   bool              `json:"stream"`
	System   json.RawMessage   `json:"system"`
	Messages []json.RawMessage `json:"messages"`
	Tools    []json.RawMessage `json:"tools"`
}

// detectDialect applies the four detection rules from the normaliser spec,
// in order; the first rule that matches wins. Parse failures are treated
// as "does not match" so detection degrades to OpenAI (the more common
// and more permissive shape) rather than failing the record outright.
func detectDialect(rec *trace.Record) dialect {
	if responseIsClaudeStream(rec.Response) {
		return dialectClaude
	}

	var req rawRequest
	if err := json.Unmarshal(rec.Request, &req); err != nil {
		return dialectOpenAI
	}

	if isJSONArray(req.System) {
		return dialectClaude
	}

	if len(req.Tools) > 0 {
		var first map[string]json.RawMessage
		if err := json.Unmarshal(req.Tools[0], &first); err == nil {
			if _, ok := first["input_schema"]; ok {
				return dialectClaude
			}
		}
	}

	for _, raw := range req.Messages {
		if messageHasClaudeBlock(raw) {
			return dialectClaude
		}
	}

	return dialectOpenAI
}

func responseIsClaudeStream(raw json.RawMessage) bool {
	var sr trace.StreamResponse
	if err := json.Unmarshal(raw, &sr); err != nil || !sr.Stream {
		return false
	}
	for _, line := range sr.SSELines {
		data, ok := sseData(line)
		if !ok {
			continue
		}
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		if claudeStreamEventTypes[ev.Type] {
			return true
		}
	}
	return false
}

func messageHasClaudeBlock(raw json.RawMessage) bool {
	var msg struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil || !isJSONArray(msg.Content) {
		return false
	}
	var blocks []struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return false
	}
	for _, b := range blocks {
		if claudeBlockTypes[b.Type] {
			return true
		}
	}
	return false
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// sseData extracts the payload of a `data:` SSE line, excluding the
// terminal `[DONE]` sentinel. ok is false for any other line kind.
func sseData(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if data == "" || data == "[DONE]" {
		return "", false
	}
	return data, true
}
