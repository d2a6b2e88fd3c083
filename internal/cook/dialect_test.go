package cook

import (
	"testing"

	"github.com/tjfontaine/llmtrace/internal/trace"
)

func TestDetectDialect_OpenAINonStream(t *testing.T) {
	rec := &trace.Record{
		Request:  []byte(`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`),
		Response: []byte(`{"id":"1","model":"gpt-4","choices":[{"message":{"role":"assistant","content":"hi"}}]}`),
	}
	if got := detectDialect(rec); got != dialectOpenAI {
		t.Errorf("detectDialect() = %v, want openai", got)
	}
}

func TestDetectDialect_ClaudeSystemArray(t *testing.T) {
	rec := &trace.Record{
		Request: []byte(`{"model":"claude-3","system":[{"type":"text","text":"be nice"}],"messages":[{"role":"user","content":"hi"}]}`),
	}
	if got := detectDialect(rec); got != dialectClaude {
		t.Errorf("detectDialect() = %v, want claude", got)
	}
}

func TestDetectDialect_ClaudeToolInputSchema(t *testing.T) {
	rec := &trace.Record{
		Request: []byte(`{"model":"claude-3","messages":[],"tools":[{"name":"get_weather","input_schema":{"type":"object"}}]}`),
	}
	if got := detectDialect(rec); got != dialectClaude {
		t.Errorf("detectDialect() = %v, want claude", got)
	}
}

func TestDetectDialect_ClaudeMessageBlockType(t *testing.T) {
	rec := &trace.Record{
		Request: []byte(`{"model":"claude-3","messages":[{"role":"assistant","content":[{"type":"tool_use","id":"t1","name":"f","input":{}}]}]}`),
	}
	if got := detectDialect(rec); got != dialectClaude {
		t.Errorf("detectDialect() = %v, want claude", got)
	}
}

func TestDetectDialect_ClaudeStreamEventTypes(t *testing.T) {
	rec := &trace.Record{
		Request: []byte(`{"model":"claude-3","messages":[{"role":"user","content":"hi"}]}`),
		Response: []byte(`{"stream":true,"sse_lines":[
			"event: message_start",
			"data: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"model\":\"claude-3\"}}"
		]}`),
	}
	if got := detectDialect(rec); got != dialectClaude {
		t.Errorf("detectDialect() = %v, want claude", got)
	}
}
