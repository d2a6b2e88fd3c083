package cook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tjfontaine/llmtrace/internal/artifact"
)

// dedupState maps canonical messages/tools to stable ids across an entire
// cook run, assigning a fresh id only on first occurrence.
type dedupState struct {
	msgHashes  map[string]string
	toolHashes map[string]string
	messages   []*artifact.CookedMessage
	tools      []*artifact.CookedTool
	msgSeq     int
	toolSeq    int
}

func newDedupState() *dedupState {
	return &dedupState{
		msgHashes:  make(map[string]string),
		toolHashes: make(map[string]string),
	}
}

func (d *dedupState) messageID(m canonMessage) string {
	hash := hashMessage(m)
	if id, ok := d.msgHashes[hash]; ok {
		return id
	}
	id := fmt.Sprintf("m%d", d.msgSeq)
	d.msgSeq++
	d.msgHashes[hash] = id
	d.messages = append(d.messages, &artifact.CookedMessage{
		ID:        id,
		Role:      m.Role,
		Content:   m.Content,
		ToolCalls: m.ToolCalls,
		ToolUseID: m.ToolUseID,
		IsError:   m.IsError,
	})
	return id
}

func (d *dedupState) toolID(t canonTool) string {
	hash := hashTool(t)
	if id, ok := d.toolHashes[hash]; ok {
		return id
	}
	id := fmt.Sprintf("t%d", d.toolSeq)
	d.toolSeq++
	d.toolHashes[hash] = id
	d.tools = append(d.tools, &artifact.CookedTool{
		ID:          id,
		Name:        t.Name,
		Description: t.Description,
		Parameters:  canonicalJSON(t.Parameters),
	})
	return id
}

// hashableMessage is the JSON-canonical tuple hashed to dedup a message:
// (role, content, tool_calls, tool_use_id, is_error), sorted keys,
// unspecified fields null.
type hashableMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ToolCalls json.RawMessage `json:"tool_calls"`
	ToolUseID *string         `json:"tool_use_id"`
	IsError   *bool           `json:"is_error"`
}

type hashableToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	ID        string          `json:"id"`
}

func hashMessage(m canonMessage) string {
	toolCallsRaw := json.RawMessage("null")
	if len(m.ToolCalls) > 0 {
		hcs := make([]hashableToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			hcs[i] = hashableToolCall{Name: tc.Name, Arguments: canonicalJSON(tc.Arguments), ID: tc.ID}
		}
		if b, err := json.Marshal(hcs); err == nil {
			toolCallsRaw = canonicalJSON(b)
		}
	}

	var toolUseID *string
	if m.ToolUseID != "" {
		toolUseID = &m.ToolUseID
	}

	data, _ := json.Marshal(hashableMessage{
		Role:      m.Role,
		Content:   m.Content,
		ToolCalls: toolCallsRaw,
		ToolUseID: toolUseID,
		IsError:   m.IsError,
	})
	return truncatedSHA256(canonicalJSON(data))
}

type hashableTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

func hashTool(t canonTool) string {
	data, _ := json.Marshal(hashableTool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  canonicalJSON(t.Parameters),
	})
	return truncatedSHA256(canonicalJSON(data))
}

func truncatedSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// canonicalJSON re-marshals raw through a generic interface{} so object
// keys come out sorted, making the hash stable regardless of the source's
// original key order.
func canonicalJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return json.RawMessage("null")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return out
}
