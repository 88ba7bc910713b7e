package chat

import "encoding/json"

// PartType tags the members of the ContentPart union.
type PartType string

const (
	PartText           PartType = "text"
	PartToolCall       PartType = "tool_call"
	PartThinkingSteps  PartType = "thinking_steps"
	PartReasoning      PartType = "reasoning"
	PartCompareSummary PartType = "compare_summary"
	PartMentions       PartType = "mentioned_documents"
)

// ContentPart is one typed segment of a message body. Text and tool-call
// parts make up the live render view; the remaining kinds only appear in
// persisted content so a reload can restore auxiliary state the live view
// keeps elsewhere.
type ContentPart struct {
	Type PartType `json:"type"`

	Text string `json:"text,omitempty"`

	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Result     map[string]any `json:"result,omitempty"`

	Steps     []ThinkingStep      `json:"steps,omitempty"`
	Summary   json.RawMessage     `json:"summary,omitempty"`
	Documents []MentionedDocument `json:"documents,omitempty"`
}

// StepStatus is the lifecycle state of a thinking step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// ThinkingStep is one chain-of-thought entry, upserted by id as the
// backend refines it during a turn.
type ThinkingStep struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status StepStatus `json:"status"`
	Lines  []string   `json:"lines,omitempty"`
}

// TraceSpan is a timed unit of backend work. Spans belong to a trace
// session and are ordered by Sequence; arrival order is not guaranteed.
type TraceSpan struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	Name     string `json:"name,omitempty"`
	Status   string `json:"status,omitempty"`
}

func NewTextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

func NewToolCallPart(id, name string, args map[string]any) ContentPart {
	return ContentPart{Type: PartToolCall, ToolCallID: id, ToolName: name, Arguments: args}
}

func NewThinkingStepsPart(steps []ThinkingStep) ContentPart {
	return ContentPart{Type: PartThinkingSteps, Steps: steps}
}

func NewReasoningPart(text string) ContentPart {
	return ContentPart{Type: PartReasoning, Text: text}
}

func NewCompareSummaryPart(summary json.RawMessage) ContentPart {
	return ContentPart{Type: PartCompareSummary, Summary: summary}
}

func NewMentionsPart(docs []MentionedDocument) ContentPart {
	return ContentPart{Type: PartMentions, Documents: docs}
}

func (p ContentPart) IsText() bool     { return p.Type == PartText }
func (p ContentPart) IsToolCall() bool { return p.Type == PartToolCall }

// IsEmptyText reports whether the part is a text part with no content.
func (p ContentPart) IsEmptyText() bool {
	return p.Type == PartText && p.Text == ""
}

// ClonePart returns a deep copy of the part so callers can hand out
// snapshots without sharing mutable maps or slices.
func ClonePart(p ContentPart) ContentPart {
	out := p
	out.Arguments = cloneMap(p.Arguments)
	out.Result = cloneMap(p.Result)
	if p.Steps != nil {
		out.Steps = make([]ThinkingStep, len(p.Steps))
		for i, s := range p.Steps {
			out.Steps[i] = CloneStep(s)
		}
	}
	if p.Summary != nil {
		out.Summary = append(json.RawMessage(nil), p.Summary...)
	}
	if p.Documents != nil {
		out.Documents = append([]MentionedDocument(nil), p.Documents...)
	}
	return out
}

// CloneParts deep-copies a part list.
func CloneParts(parts []ContentPart) []ContentPart {
	if parts == nil {
		return nil
	}
	out := make([]ContentPart, len(parts))
	for i, p := range parts {
		out[i] = ClonePart(p)
	}
	return out
}

// CloneStep returns a copy of the step with its own lines slice.
func CloneStep(s ThinkingStep) ThinkingStep {
	out := s
	if s.Lines != nil {
		out.Lines = append([]string(nil), s.Lines...)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
