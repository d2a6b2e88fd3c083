// Package artifact holds the data model shared by the normaliser and the
// lineage reconstructor: the canonical, deduplicated message/tool/request
// types that together make up the derived JSON document the viewer reads.
package artifact

import "encoding/json"

// CookedMessage is one normalised message, post-deduplication.
type CookedMessage struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolUseID string     `json:"tool_use_id,omitempty"`
	IsError   *bool      `json:"is_error,omitempty"`
}

// ToolCall is one invocation referenced by a tool_use message.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	ID        string          `json:"id"`
}

// CookedTool is one normalised tool definition.
type CookedTool struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CookedRequest is one normalised TraceRecord: the ids of the messages that
// made up its prompt prefix and its response, the tools it declared, and
// (once the lineage reconstructor has run) its parent in the call forest.
type CookedRequest struct {
	ID               string   `json:"id"`
	ParentID         *string  `json:"parent_id"`
	Timestamp        int64    `json:"timestamp"`
	RequestMessages  []string `json:"request_messages"`
	ResponseMessages []string `json:"response_messages"`
	Model            string   `json:"model"`
	Tools            []string `json:"tools"`
	DurationMs       int64    `json:"duration_ms"`
}

// Document is the single derived JSON document consumed by the viewer.
type Document struct {
	Messages []*CookedMessage `json:"messages"`
	Tools    []*CookedTool    `json:"tools"`
	Requests []*CookedRequest `json:"requests"`
}
