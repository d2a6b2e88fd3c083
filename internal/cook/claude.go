package cook

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tjfontaine/llmtrace/internal/artifact"
	"github.com/tjfontaine/llmtrace/internal/trace"
)

// claudeBlock is a single Claude content block, in either its request-time
// shape (input already a decoded object) or its reassembled-from-stream
// shape (input accumulated from partial_json deltas).
type claudeBlock struct {
	Type        string          `json:"type"`
	Text        string          `json:"text"`
	Thinking    string          `json:"thinking"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Input       json.RawMessage `json:"input"`
	ToolUseID   string          `json:"tool_use_id"`
	IsError     bool            `json:"is_error"`
	Content     json.RawMessage `json:"content"`
}

// translateClaudeRequest turns the request side of a TraceRecord into
// canonical messages and tools, system blocks first.
func translateClaudeRequest(req rawRequest) ([]canonMessage, []canonTool, error) {
	var tools []canonTool
	for _, raw := range req.Tools {
		var t struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"input_schema"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, nil, fmt.Errorf("decode claude tool: %w", err)
		}
		tools = append(tools, canonTool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  orEmptyObject(t.InputSchema),
		})
	}

	var messages []canonMessage
	if isJSONArray(req.System) {
		var blocks []claudeBlock
		if err := json.Unmarshal(req.System, &blocks); err == nil {
			for _, b := range blocks {
				if b.Type == "" || b.Type == "text" {
					messages = append(messages, canonMessage{Role: "system", Content: b.Text})
				}
			}
		}
	}

	for _, raw := range req.Messages {
		var m struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, nil, fmt.Errorf("decode claude message: %w", err)
		}
		switch m.Role {
		case "user":
			messages = append(messages, claudeUserToCanon(m.Content)...)
		case "assistant":
			messages = append(messages, claudeAssistantToCanon(claudeContentBlocks(m.Content))...)
		}
	}
	return messages, tools, nil
}

// claudeContentBlocks decodes a message's content field, which may be a
// plain string (treated as a single text block) or a list of blocks.
func claudeContentBlocks(content json.RawMessage) []claudeBlock {
	if isJSONArray(content) {
		var blocks []claudeBlock
		if err := json.Unmarshal(content, &blocks); err == nil {
			return blocks
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return []claudeBlock{{Type: "text", Text: s}}
	}
	return nil
}

func claudeUserToCanon(content json.RawMessage) []canonMessage {
	blocks := claudeContentBlocks(content)
	var out []canonMessage
	for _, b := range blocks {
		switch b.Type {
		case "tool_result":
			isErr := b.IsError
			out = append(out, canonMessage{
				Role:      "tool_result",
				Content:   claudeToolResultText(b.Content),
				ToolUseID: b.ToolUseID,
				IsError:   &isErr,
			})
		case "image":
			out = append(out, canonMessage{Role: "user", Content: imagePlaceholder})
		default:
			out = append(out, canonMessage{Role: "user", Content: b.Text})
		}
	}
	return out
}

func claudeToolResultText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	blocks := claudeContentBlocks(content)
	var out string
	for _, b := range blocks {
		if b.Type == "image" {
			out += imagePlaceholder
		} else {
			out += b.Text
		}
	}
	return out
}

// claudeAssistantToCanon translates one assistant turn's blocks in order,
// aggregating every tool_use block in the turn into a single tool_use
// message emitted at the position of the first one encountered.
func claudeAssistantToCanon(blocks []claudeBlock) []canonMessage {
	var toolUseBlocks []claudeBlock
	for _, b := range blocks {
		if b.Type == "tool_use" {
			toolUseBlocks = append(toolUseBlocks, b)
		}
	}

	var out []canonMessage
	emittedToolUse := false
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out = append(out, canonMessage{Role: "assistant", Content: b.Text})
		case "thinking":
			out = append(out, canonMessage{Role: "thinking", Content: b.Thinking})
		case "tool_use":
			if emittedToolUse {
				continue
			}
			emittedToolUse = true
			calls := make([]artifact.ToolCall, 0, len(toolUseBlocks))
			for _, tb := range toolUseBlocks {
				calls = append(calls, artifact.ToolCall{Name: tb.Name, Arguments: orEmptyObject(tb.Input), ID: tb.ID})
			}
			out = append(out, canonMessage{Role: "tool_use", ToolCalls: calls})
		case "image":
			out = append(out, canonMessage{Role: "assistant", Content: imagePlaceholder})
		}
	}
	return out
}

// reassembleClaudeResponse produces the id, model, and content blocks of a
// TraceRecord's response, whichever of the streamed/non-streamed shapes
// it's in.
func reassembleClaudeResponse(resp json.RawMessage) (id, model string, blocks []claudeBlock, err error) {
	var sr trace.StreamResponse
	if uerr := json.Unmarshal(resp, &sr); uerr == nil && sr.Stream {
		return assembleClaudeStream(sr.SSELines)
	}

	var body struct {
		ID      string        `json:"id"`
		Model   string        `json:"model"`
		Content []claudeBlock `json:"content"`
	}
	if uerr := json.Unmarshal(resp, &body); uerr != nil {
		return "", "", nil, fmt.Errorf("decode claude response: %w", uerr)
	}
	return body.ID, body.Model, body.Content, nil
}

// claudeStreamBlock accumulates one content block's deltas across an SSE
// stream; partialJSON holds the concatenated input_json_delta fragments
// for a tool_use block, parsed into Input once the whole stream has been
// read (content_block_stop events are not consulted).
type claudeStreamBlock struct {
	blockType   string
	id          string
	name        string
	text        string
	thinking    string
	partialJSON string
}

func assembleClaudeStream(lines []string) (id, model string, blocks []claudeBlock, err error) {
	state := map[int]*claudeStreamBlock{}
	var order []int

	for _, line := range lines {
		data, ok := sseData(line)
		if !ok {
			continue
		}
		var ev struct {
			Type    string `json:"type"`
			Index   int    `json:"index"`
			Message struct {
				ID    string `json:"id"`
				Model string `json:"model"`
			} `json:"message"`
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				Thinking    string `json:"thinking"`
				PartialJSON string `json:"partial_json"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "message_start":
			if ev.Message.ID != "" {
				id = ev.Message.ID
			}
			if ev.Message.Model != "" {
				model = ev.Message.Model
			}
		case "content_block_start":
			state[ev.Index] = &claudeStreamBlock{
				blockType: ev.ContentBlock.Type,
				id:        ev.ContentBlock.ID,
				name:      ev.ContentBlock.Name,
			}
			order = append(order, ev.Index)
		case "content_block_delta":
			b, ok := state[ev.Index]
			if !ok {
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				b.text += ev.Delta.Text
			case "thinking_delta":
				b.thinking += ev.Delta.Thinking
			case "input_json_delta":
				b.partialJSON += ev.Delta.PartialJSON
			}
		}
	}

	sort.Ints(order)
	for _, idx := range order {
		b := state[idx]
		cb := claudeBlock{Type: b.blockType, Text: b.text, Thinking: b.thinking, ID: b.id, Name: b.name}
		if b.blockType == "tool_use" {
			cb.Input = orEmptyObject(json.RawMessage(b.partialJSON))
		}
		blocks = append(blocks, cb)
	}
	return id, model, blocks, nil
}
