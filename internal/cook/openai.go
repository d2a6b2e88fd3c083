package cook

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tjfontaine/llmtrace/internal/artifact"
	"github.com/tjfontaine/llmtrace/internal/trace"
)

type openaiToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    json.RawMessage  `json:"content"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

// openaiAssembled is the reconstructed shape of a (possibly streamed)
// OpenAI chat completion response, independent of whether it arrived as
// one JSON object or as a sequence of SSE chunks.
type openaiAssembled struct {
	ID        string
	Model     string
	Role      string
	Content   string
	ToolCalls []openaiToolCall
}

// translateOpenAIRequest turns the request side of a TraceRecord into
// canonical messages and tools, in the order the conversation implies.
func translateOpenAIRequest(req rawRequest) ([]canonMessage, []canonTool, error) {
	var tools []canonTool
	for _, raw := range req.Tools {
		var t openaiTool
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, nil, fmt.Errorf("decode openai tool: %w", err)
		}
		tools = append(tools, canonTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  orEmptyObject(t.Function.Parameters),
		})
	}

	var messages []canonMessage
	for _, raw := range req.Messages {
		var m openaiMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, nil, fmt.Errorf("decode openai message: %w", err)
		}
		messages = append(messages, openaiMessageToCanon(m))
	}
	return messages, tools, nil
}

func openaiMessageToCanon(m openaiMessage) canonMessage {
	switch {
	case m.Role == "tool":
		isError := false
		return canonMessage{
			Role:      "tool_result",
			Content:   extractOpenAIText(m.Content),
			ToolUseID: m.ToolCallID,
			IsError:   &isError,
		}
	case len(m.ToolCalls) > 0:
		calls := make([]artifact.ToolCall, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			calls = append(calls, artifact.ToolCall{
				Name:      tc.Function.Name,
				Arguments: orEmptyObject(json.RawMessage(tc.Function.Arguments)),
				ID:        tc.ID,
			})
		}
		return canonMessage{
			Role:      "tool_use",
			Content:   extractOpenAIText(m.Content),
			ToolCalls: calls,
		}
	default:
		return canonMessage{
			Role:    m.Role,
			Content: extractOpenAIText(m.Content),
		}
	}
}

// extractOpenAIText handles both the plain-string content shape and the
// multimodal list shape, concatenating text parts and replacing any other
// part with the image placeholder.
func extractOpenAIText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		} else {
			b.WriteString(imagePlaceholder)
		}
	}
	return b.String()
}

// reassembleOpenAIResponse produces an openaiAssembled from a TraceRecord's
// response, whichever of the streamed/non-streamed shapes it's in.
func reassembleOpenAIResponse(resp json.RawMessage) (openaiAssembled, error) {
	var sr trace.StreamResponse
	if err := json.Unmarshal(resp, &sr); err == nil && sr.Stream {
		return assembleOpenAIStream(sr.SSELines)
	}

	var body struct {
		ID      string `json:"id"`
		Model   string `json:"model"`
		Choices []struct {
			Message openaiMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		return openaiAssembled{}, fmt.Errorf("decode openai response: %w", err)
	}
	out := openaiAssembled{ID: body.ID, Model: body.Model, Role: "assistant"}
	if len(body.Choices) > 0 {
		msg := body.Choices[0].Message
		if msg.Role != "" {
			out.Role = msg.Role
		}
		out.Content = extractOpenAIText(msg.Content)
		out.ToolCalls = msg.ToolCalls
	}
	return out, nil
}

type openaiChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
}

func assembleOpenAIStream(lines []string) (openaiAssembled, error) {
	var out openaiAssembled
	var content strings.Builder
	toolCalls := map[int]*openaiToolCall{}
	var order []int

	for _, line := range lines {
		data, ok := sseData(line)
		if !ok {
			continue
		}
		var chunk openaiChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if out.ID == "" && chunk.ID != "" {
			out.ID = chunk.ID
		}
		if out.Model == "" && chunk.Model != "" {
			out.Model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Role != "" {
			out.Role = delta.Role
		}
		content.WriteString(delta.Content)
		for _, tc := range delta.ToolCalls {
			existing, seen := toolCalls[tc.Index]
			if !seen {
				existing = &openaiToolCall{}
				toolCalls[tc.Index] = existing
				order = append(order, tc.Index)
			}
			if tc.ID != "" {
				existing.ID = tc.ID
			}
			if tc.Function.Name != "" {
				existing.Function.Name = tc.Function.Name
			}
			existing.Function.Arguments += tc.Function.Arguments
		}
	}

	if out.Role == "" {
		out.Role = "assistant"
	}
	out.Content = content.String()
	sort.Ints(order)
	for _, idx := range order {
		out.ToolCalls = append(out.ToolCalls, *toolCalls[idx])
	}
	return out, nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	trimmed := []byte(strings.TrimSpace(string(raw)))
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return json.RawMessage(`{}`)
	}
	return trimmed
}
