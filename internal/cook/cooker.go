package cook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tjfontaine/llmtrace/internal/artifact"
	"github.com/tjfontaine/llmtrace/internal/lineage"
	"github.com/tjfontaine/llmtrace/internal/trace"
)

// Format is an explicit dialect hint for Cook. "auto" (the default)
// always performs per-record detection; any other value skips detection
// for every record and assumes that dialect, matching the behavior
// carried over from the original CLI's --format flag.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatOpenAI Format = "openai"
	FormatClaude Format = "claude"
)

// Cook normalises records into a deduplicated artifact.Document and
// reconstructs request lineage. A record that cannot be parsed is skipped
// with a logged diagnostic; it never aborts the run.
func Cook(ctx context.Context, records []*trace.Record, format Format, logger *slog.Logger) (*artifact.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tracer := otel.Tracer("llmtrace/cook")
	ctx, span := tracer.Start(ctx, "cook.run")
	defer span.End()
	span.SetAttributes(attribute.Int("cook.record_count", len(records)))

	dedup := newDedupState()
	var requests []*artifact.CookedRequest

	for _, rec := range records {
		_, recSpan := tracer.Start(ctx, "cook.record")
		recSpan.SetAttributes(attribute.String("trace.record_id", rec.ID))

		cr, err := cookRecord(rec, format, dedup)
		if err != nil {
			logger.Warn("skipping unparseable record",
				slog.String("record_id", rec.ID),
				slog.String("reason", err.Error()),
			)
			recSpan.SetAttributes(attribute.String("trace.error", err.Error()))
			recSpan.End()
			continue
		}
		requests = append(requests, cr)
		recSpan.End()
	}

	lineage.Assign(requests)

	return &artifact.Document{
		Messages: dedup.messages,
		Tools:    dedup.tools,
		Requests: requests,
	}, nil
}

func cookRecord(rec *trace.Record, format Format, dedup *dedupState) (*artifact.CookedRequest, error) {
	if rec.Error != "" && isEmptyResponse(rec.Response) {
		return nil, fmt.Errorf("record failed upstream and has no response: %s", rec.Error)
	}

	var req rawRequest
	if err := json.Unmarshal(rec.Request, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	d := format.resolve(rec)

	var (
		reqMessages  []canonMessage
		reqTools     []canonTool
		respMessages []canonMessage
		err          error
	)

	switch d {
	case dialectClaude:
		reqMessages, reqTools, err = translateClaudeRequest(req)
		if err != nil {
			return nil, err
		}
		_, respModel, blocks, rerr := reassembleClaudeResponse(rec.Response)
		if rerr != nil {
			return nil, rerr
		}
		respMessages = claudeAssistantToCanon(blocks)
		if req.Model == "" {
			req.Model = respModel
		}
	default:
		reqMessages, reqTools, err = translateOpenAIRequest(req)
		if err != nil {
			return nil, err
		}
		assembled, rerr := reassembleOpenAIResponse(rec.Response)
		if rerr != nil {
			return nil, rerr
		}
		respMessages = []canonMessage{openaiAssembledToCanon(assembled)}
		if req.Model == "" {
			req.Model = assembled.Model
		}
	}

	toolIDs := make([]string, 0, len(reqTools))
	for _, t := range reqTools {
		toolIDs = append(toolIDs, dedup.toolID(t))
	}

	requestMessageIDs := make([]string, 0, len(reqMessages))
	for _, m := range reqMessages {
		requestMessageIDs = append(requestMessageIDs, dedup.messageID(m))
	}

	responseMessageIDs := make([]string, 0, len(respMessages))
	for _, m := range respMessages {
		responseMessageIDs = append(responseMessageIDs, dedup.messageID(m))
	}

	return &artifact.CookedRequest{
		ID:               rec.ID,
		Timestamp:        rec.Timestamp.UnixMilli(),
		RequestMessages:  requestMessageIDs,
		ResponseMessages: responseMessageIDs,
		Model:            req.Model,
		Tools:            toolIDs,
		DurationMs:       rec.DurationMs,
	}, nil
}

func openaiAssembledToCanon(a openaiAssembled) canonMessage {
	if len(a.ToolCalls) > 0 {
		calls := make([]artifact.ToolCall, 0, len(a.ToolCalls))
		for _, tc := range a.ToolCalls {
			calls = append(calls, artifact.ToolCall{
				Name:      tc.Function.Name,
				Arguments: orEmptyObject(json.RawMessage(tc.Function.Arguments)),
				ID:        tc.ID,
			})
		}
		return canonMessage{Role: "tool_use", Content: a.Content, ToolCalls: calls}
	}
	role := a.Role
	if role == "" {
		role = "assistant"
	}
	return canonMessage{Role: role, Content: a.Content}
}

func isEmptyResponse(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

// resolve returns the dialect Cook should use for rec: the explicit hint
// when f is not FormatAuto, otherwise the result of per-record detection.
func (f Format) resolve(rec *trace.Record) dialect {
	switch f {
	case FormatOpenAI:
		return dialectOpenAI
	case FormatClaude:
		return dialectClaude
	default:
		return detectDialect(rec)
	}
}
