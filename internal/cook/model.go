// Package cook normalises a capture log into a canonical, deduplicated
// message/tool model: it detects which of two LLM API dialects produced
// each TraceRecord, reassembles streamed responses, translates both
// dialects into one message shape, and folds identical content down to
// shared ids.
package cook

import (
	"encoding/json"

	"github.com/tjfontaine/llmtrace/internal/artifact"
)

// canonMessage is a message already translated to canonical shape but not
// yet assigned a dedup id.
type canonMessage struct {
	Role      string
	Content   string
	ToolCalls []artifact.ToolCall
	ToolUseID string
	IsError   *bool
}

// canonTool is a tool already translated to canonical shape but not yet
// assigned a dedup id.
type canonTool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// imagePlaceholder replaces any non-text content part (images, etc.) in a
// canonical message's content string.
const imagePlaceholder = "[image]"
