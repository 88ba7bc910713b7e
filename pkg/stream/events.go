// Package stream decodes the backend's incremental event stream into typed
// domain events.
package stream

import (
	"encoding/json"
	"errors"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
)

// Type identifies an event category on the wire.
type Type string

const (
	TypeTextDelta           Type = "text-delta"
	TypeTextClear           Type = "text-clear"
	TypeToolInputStart      Type = "tool-input-start"
	TypeToolInputAvailable  Type = "tool-input-available"
	TypeToolOutputAvailable Type = "tool-output-available"
	TypeThinkingStep        Type = "data-thinking-step"
	TypeContextStats        Type = "data-context-stats"
	TypeTraceSession        Type = "data-trace-session"
	TypeTraceSpan           Type = "data-trace-span"
	TypeCompareSummary      Type = "data-compare-summary"
	TypeReasoningDelta      Type = "reasoning-delta"
	TypeError               Type = "error"
)

// Event is one decoded stream event. Only the fields belonging to the
// event's Type are populated.
type Event struct {
	Type Type

	// text-delta, reasoning-delta
	Delta string

	// tool-input-start, tool-input-available, tool-output-available
	ToolCallID string
	ToolName   string
	Input      map[string]any
	Output     map[string]any

	// data-thinking-step
	Step chat.ThinkingStep

	// data-context-stats
	Stats map[string]int64

	// data-trace-session, data-trace-span
	TraceSessionID string
	TraceEvent     string
	Span           chat.TraceSpan

	// data-compare-summary
	Summary json.RawMessage

	// error
	ErrorText string
}

// errMalformed marks a payload that failed structural parsing; the decoder
// swallows it and keeps reading.
var errMalformed = errors.New("malformed event payload")

// wireEvent is the raw JSON shape of a payload line.
type wireEvent struct {
	Type       string          `json:"type"`
	Delta      string          `json:"delta"`
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Input      map[string]any  `json:"input"`
	Output     map[string]any  `json:"output"`
	Data       json.RawMessage `json:"data"`
	ErrorText  string          `json:"errorText"`
}

type wireThinkingStep struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Items  []string `json:"items"`
}

type wireTraceSession struct {
	TraceSessionID string `json:"trace_session_id"`
}

type wireTraceSpan struct {
	TraceSessionID string `json:"trace_session_id"`
	Event          string `json:"event"`
	Span           struct {
		ID       string `json:"id"`
		Sequence int    `json:"sequence"`
		Name     string `json:"name"`
		Status   string `json:"status"`
	} `json:"span"`
}

func parseEvent(payload []byte) (Event, error) {
	var raw wireEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, errMalformed
	}

	ev := Event{Type: Type(raw.Type)}
	switch ev.Type {
	case TypeTextDelta, TypeReasoningDelta:
		ev.Delta = raw.Delta
	case TypeTextClear:
	case TypeToolInputStart:
		ev.ToolCallID = raw.ToolCallID
		ev.ToolName = raw.ToolName
	case TypeToolInputAvailable:
		ev.ToolCallID = raw.ToolCallID
		ev.ToolName = raw.ToolName
		ev.Input = raw.Input
	case TypeToolOutputAvailable:
		ev.ToolCallID = raw.ToolCallID
		ev.Output = raw.Output
	case TypeThinkingStep:
		var step wireThinkingStep
		if err := json.Unmarshal(raw.Data, &step); err != nil {
			return Event{}, errMalformed
		}
		ev.Step = chat.ThinkingStep{
			ID:     step.ID,
			Title:  step.Title,
			Status: chat.StepStatus(step.Status),
			Lines:  step.Items,
		}
	case TypeContextStats:
		if err := json.Unmarshal(raw.Data, &ev.Stats); err != nil {
			return Event{}, errMalformed
		}
	case TypeTraceSession:
		var ts wireTraceSession
		if err := json.Unmarshal(raw.Data, &ts); err != nil {
			return Event{}, errMalformed
		}
		ev.TraceSessionID = ts.TraceSessionID
	case TypeTraceSpan:
		var span wireTraceSpan
		if err := json.Unmarshal(raw.Data, &span); err != nil {
			return Event{}, errMalformed
		}
		ev.TraceSessionID = span.TraceSessionID
		ev.TraceEvent = span.Event
		ev.Span = chat.TraceSpan{
			ID:       span.Span.ID,
			Sequence: span.Span.Sequence,
			Name:     span.Span.Name,
			Status:   span.Span.Status,
		}
	case TypeCompareSummary:
		ev.Summary = append(json.RawMessage(nil), raw.Data...)
	case TypeError:
		ev.ErrorText = raw.ErrorText
	default:
		return Event{}, errMalformed
	}
	return ev, nil
}
